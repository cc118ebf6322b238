package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Call is one transport invocation built from a request snapshot.
type Call struct {
	Method          Method
	URL             *url.URL
	Header          http.Header
	Body            []byte
	Timeout         time.Duration
	FollowRedirects bool
	// Proxy overrides the client proxy configuration when set.
	Proxy *url.URL
}

// Transport performs the network I/O for a single attempt.
//
// A returned error is a transport-level failure; any HTTP status, including
// 5xx, is a successful send.
type Transport interface {
	Send(ctx context.Context, call *Call) (*http.Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, call *Call) (*http.Response, error)

// Send calls f(ctx, call).
func (f TransportFunc) Send(ctx context.Context, call *Call) (*http.Response, error) {
	return f(ctx, call)
}

// Resetter is implemented by transports holding pooled state that
// Client.Reset should discard.
type Resetter interface {
	Reset()
}

// netTransport sends calls through net/http. Connections are pooled in a
// shared *http.Transport; calls with an explicit proxy get a cached clone.
type netTransport struct {
	base *http.Transport

	mu      sync.Mutex
	proxied map[string]*http.Transport
}

var (
	_ Transport = (*netTransport)(nil)
	_ Resetter  = (*netTransport)(nil)
)

func newNetTransport(cfg Config) (*netTransport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			base.TLSClientConfig = tlsCfg
		}
	}

	proxyFunc := cfg.Proxy.proxyFunc()
	base.Proxy = func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}

	return &netTransport{
		base:    base,
		proxied: make(map[string]*http.Transport),
	}, nil
}

// Send executes the call. The call timeout covers connecting and waiting
// for the response headers; reading the body is bounded only by ctx and
// lasts until the body is closed.
func (t *netTransport) Send(ctx context.Context, call *Call) (*http.Response, error) {
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, string(call.Method), call.URL.String(), body)
	if err != nil {
		cancel()
		return nil, err
	}
	if call.Header != nil {
		req.Header = call.Header
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}

	client := &http.Client{Transport: t.transportFor(call.Proxy)}
	if !call.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var timer *time.Timer
	if call.Timeout > 0 {
		timer = time.AfterFunc(call.Timeout, cancel)
	}
	resp, err := client.Do(req)
	if timer != nil && !timer.Stop() {
		if resp != nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("no response headers within %s: %w", call.Timeout, context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the attempt context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (t *netTransport) transportFor(proxy *url.URL) *http.Transport {
	if proxy == nil {
		return t.base
	}
	key := proxy.String()

	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.proxied[key]; ok {
		return tr
	}
	tr := t.base.Clone()
	tr.Proxy = http.ProxyURL(proxy)
	t.proxied[key] = tr
	return tr
}

// Reset closes idle pooled connections and drops proxy transports.
func (t *netTransport) Reset() {
	t.mu.Lock()
	proxied := t.proxied
	t.proxied = make(map[string]*http.Transport)
	t.mu.Unlock()

	t.base.CloseIdleConnections()
	for _, tr := range proxied {
		tr.CloseIdleConnections()
	}
}
