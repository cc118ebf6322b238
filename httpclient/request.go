package httpclient

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/httputils/resilience"
	"github.com/kbukum/httputils/validation"
)

// Request is a fluent builder for one HTTP request.
//
// Every mutator returns the same *Request so calls can be chained. A mutator
// that rejects its arguments records the first such error; terminal methods
// (Get, Post, GetAsync, ...) return it instead of sending anything. Err
// exposes it early.
//
// A Request may be executed many times and from several goroutines; each
// execution works on a snapshot taken when it starts.
type Request struct {
	client   *Client
	template string

	headers multiMap
	query   multiMap

	mu              sync.Mutex
	pathParams      []pathParam
	proxy           *url.URL
	timeout         time.Duration
	followRedirects bool
	body            string
	userAgent       string
	retry           *resilience.RetryPolicy
	err             error
}

func newRequest(c *Client, rawURL string) *Request {
	return &Request{
		client:          c,
		template:        rawURL,
		followRedirects: true,
	}
}

// FormPair is one name/value pair of a form body.
type FormPair struct {
	Name  string
	Value string
}

// Err returns the first error recorded by a mutator.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Request) fail(err error) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
	return r
}

// Header appends a value for name. Existing values are kept.
func (r *Request) Header(name, value string) *Request {
	r.headers.add(name, value)
	return r
}

// QueryParam appends a query parameter. Existing values are kept.
func (r *Request) QueryParam(name, value string) *Request {
	r.query.add(name, value)
	return r
}

// PathParam replaces every literal "{name}" in the URL with value.
// The last value set for a name wins.
func (r *Request) PathParam(name, value string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pathParams {
		if r.pathParams[i].name == name {
			r.pathParams[i].value = value
			return r
		}
	}
	r.pathParams = append(r.pathParams, pathParam{name: name, value: value})
	return r
}

// ContentType adds a Content-Type header.
func (r *Request) ContentType(contentType string) *Request {
	return r.Header(HeaderContentType, contentType)
}

// Accept adds an Accept header.
func (r *Request) Accept(accept string) *Request {
	return r.Header(HeaderAccept, accept)
}

// UserAgent overrides the client user agent.
func (r *Request) UserAgent(agent string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userAgent = agent
	return r
}

// Timeout bounds connecting and waiting for response headers on each
// attempt. Zero uses the client default, which may be none.
func (r *Request) Timeout(d time.Duration) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
	return r
}

// FollowRedirect controls whether redirects are followed. Defaults to true.
func (r *Request) FollowRedirect(follow bool) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followRedirects = follow
	return r
}

// Proxy routes the request through an HTTP proxy at host:port.
func (r *Request) Proxy(host string, port int) *Request {
	err := validation.New().
		Required("host", host).
		Range("port", port, 1, 65535).
		Err()
	if err != nil {
		return r.fail(NewInvalidArgumentError("proxy", err))
	}
	u := &url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxy = u
	return r
}

// Body sets the request entity. It is sent for POST, PUT and PATCH only.
func (r *Request) Body(body string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = body
	return r
}

// JSON sets the body to the given JSON text and adds a JSON Content-Type.
func (r *Request) JSON(body string) *Request {
	return r.ContentType(ContentTypeJSON).Body(body)
}

// Form sets an application/x-www-form-urlencoded body built from pairs in
// order. Names and values are joined verbatim unless the client has
// EncodeFormValues enabled.
func (r *Request) Form(pairs ...FormPair) *Request {
	encode := r.client != nil && r.client.config.EncodeFormValues

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		name, value := p.Name, p.Value
		if encode {
			name, value = url.QueryEscape(name), url.QueryEscape(value)
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return r.ContentType(ContentTypeForm).Body(b.String())
}

// Retry installs a retry policy. maxRetries must be positive and both
// functions non-nil; otherwise an ErrCodeInvalidArgument error is recorded
// and any previous policy is kept.
func (r *Request) Retry(maxRetries int, retryable resilience.Retryable, wait resilience.WaitStrategy) *Request {
	policy, err := resilience.NewRetryPolicy(maxRetries, retryable, wait)
	if err != nil {
		return r.fail(NewInvalidArgumentError("retry policy", err))
	}
	return r.setRetry(policy)
}

// RetryDefault installs resilience.DefaultRetryPolicy: 5 retries on
// transport errors or 5xx with exponential backoff.
func (r *Request) RetryDefault() *Request {
	return r.setRetry(resilience.DefaultRetryPolicy())
}

// RetryPolicy installs a prebuilt policy after validating it.
func (r *Request) RetryPolicy(policy resilience.RetryPolicy) *Request {
	if err := policy.Validate(); err != nil {
		return r.fail(NewInvalidArgumentError("retry policy", err))
	}
	return r.setRetry(policy)
}

func (r *Request) setRetry(policy resilience.RetryPolicy) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = &policy
	return r
}

// Do executes the request with the given method and blocks until the final
// attempt. The caller must Close the returned Response.
func (r *Request) Do(ctx context.Context, method Method) (*Response, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return r.client.execute(ctx, method, snap)
}

// Get executes a GET request.
func (r *Request) Get(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodGet) }

// Put executes a PUT request.
func (r *Request) Put(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodPut) }

// Patch executes a PATCH request.
func (r *Request) Patch(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodPatch) }

// Post executes a POST request.
func (r *Request) Post(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodPost) }

// Delete executes a DELETE request.
func (r *Request) Delete(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodDelete) }

// Options executes an OPTIONS request.
func (r *Request) Options(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodOptions) }

// Head executes a HEAD request.
func (r *Request) Head(ctx context.Context) (*Response, error) { return r.Do(ctx, MethodHead) }

// requestSnapshot is the immutable state of one execution.
type requestSnapshot struct {
	template        string
	headers         []entry
	query           []entry
	pathParams      []pathParam
	proxy           *url.URL
	timeout         time.Duration
	followRedirects bool
	body            string
	userAgent       string
	retry           *resilience.RetryPolicy
}

func (r *Request) snapshot() (*requestSnapshot, error) {
	if r.client == nil {
		return nil, NewInvalidArgumentError("request", errors.New("request has no client"))
	}

	headers := r.headers.snapshot()
	query := r.query.snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	snap := &requestSnapshot{
		template:        r.template,
		headers:         headers,
		query:           query,
		pathParams:      append([]pathParam(nil), r.pathParams...),
		proxy:           r.proxy,
		timeout:         r.timeout,
		followRedirects: r.followRedirects,
		body:            r.body,
		userAgent:       r.userAgent,
	}
	if r.retry != nil {
		policy := *r.retry
		snap.retry = &policy
	}
	return snap, nil
}
