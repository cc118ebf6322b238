package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/httputils/logger"
)

// Log field keys used by the execution engine.
const (
	fieldExecutionID = "execution_id"
	fieldMethod      = "method"
	fieldURL         = "url"
	fieldAttempt     = "attempt"
	fieldStatus      = "status"
	fieldDelay       = "delay_ms"
)

// Clock tags for the backoff timer.
var backoffTags = []string{"httpclient", "backoff"}

// execute runs the attempt loop for one execution.
//
// Attempt n (0-based) waits policy.Delay(n-1) first when n > 0. A transport
// failure without a policy is returned at once; with a policy it is retried
// until MaxRetries is reached. A response is retried while the policy's
// predicate accepts its status code; the rejected response is closed before
// the next attempt. Any response the predicate does not reject is returned.
func (c *Client) execute(ctx context.Context, method Method, snap *requestSnapshot) (*Response, error) {
	c.stats.executions.Add(1)
	execID := uuid.NewString()
	start := c.clock.Now()

	target, err := buildURI(snap.template, snap.pathParams, snap.query)
	if err != nil {
		c.stats.failures.Add(1)
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+method.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method.String()),
			attribute.String("url.full", redactURL(target)),
			attribute.String("httpclient.name", c.config.Name),
			attribute.String("httpclient.execution_id", execID),
		),
	)
	defer span.End()

	log := c.log.WithFields(logger.Fields(
		fieldExecutionID, execID,
		fieldMethod, method.String(),
		fieldURL, redactURL(target),
	))

	call := c.newCall(method, target, execID, snap)
	policy := snap.retry
	maxRetries := 0
	if policy != nil {
		maxRetries = policy.MaxRetries
	}

	finish := func(outcome string, resp *Response, err error) (*Response, error) {
		c.metrics.RecordExecution(ctx, c.config.Name, method.String(), outcome, c.clock.Since(start))
		if err != nil {
			c.stats.failures.Add(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("request failed", logger.ErrorFields("execute", err))
		}
		return resp, err
	}

	if c.bulkhead != nil {
		release, err := c.bulkhead.Acquire(ctx)
		if err != nil {
			return finish("rejected", nil, NewRejectedError(err))
		}
		defer release()
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := policy.Delay(attempt - 1)
			c.stats.retries.Add(1)
			c.metrics.RecordRetry(ctx, c.config.Name, method.String())
			log.Warn("retrying request", logger.Fields(fieldAttempt, attempt, fieldDelay, delay.Milliseconds()))
			c.sleep(ctx, delay)
		}

		resp, sendErr := c.send(ctx, call, attempt, log)
		if sendErr != nil {
			span.AddEvent("attempt", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.String("error", sendErr.Error()),
			))
			if policy == nil {
				return finish("transport_error", nil, NewTransportError(sendErr))
			}
			if attempt >= maxRetries {
				c.metrics.RecordExhausted(ctx, c.config.Name, method.String(), ErrCodeRetryExhausted.String())
				return finish("retry_exhausted", nil, NewRetryExhaustedError(attempt+1, sendErr))
			}
			continue
		}

		status := resp.StatusCode
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.Int("http.response.status_code", status),
		))

		if policy != nil && policy.Retryable(nil, status) {
			closeBody(resp)
			if attempt >= maxRetries {
				c.metrics.RecordExhausted(ctx, c.config.Name, method.String(), ErrCodeStatusRetryExhausted.String())
				span.SetAttributes(attribute.Int("http.response.status_code", status))
				return finish("status_retry_exhausted", nil, NewStatusRetryExhaustedError(status, attempt+1))
			}
			log.Debug("status rejected by retry policy", logger.Fields(fieldAttempt, attempt, fieldStatus, status))
			continue
		}

		span.SetAttributes(
			attribute.Int("http.response.status_code", status),
			attribute.Int("httpclient.attempts", attempt+1),
		)
		return finish("response", newResponse(resp), nil)
	}
}

// send performs one attempt once the rate limiter and the circuit breaker
// admit it.
func (c *Client) send(ctx context.Context, call *Call, attempt int, log *logger.Logger) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.stats.attempts.Add(1)
	log.Debug("sending request", logger.Fields(fieldAttempt, attempt))

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	attemptCall := *call
	attemptCall.Header = call.Header.Clone()
	resp, err := c.transport.Send(ctx, &attemptCall)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.RecordAttempt(ctx, c.config.Name, call.Method.String(), status, err)
	if c.breaker != nil {
		c.breaker.Record(err != nil || status >= 500)
	}

	if err != nil && resp != nil {
		closeBody(resp)
		resp = nil
	}
	return resp, err
}

// sleep blocks for d on the client clock. A done ctx ends the wait early
// without failing the execution.
func (c *Client) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := c.clock.NewTimer(d, backoffTags...)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// newCall assembles the transport call shared by every attempt.
func (c *Client) newCall(method Method, target *url.URL, execID string, snap *requestSnapshot) *Call {
	header := make(http.Header)
	for _, e := range c.config.sortedHeaders() {
		for _, v := range e.values {
			header.Add(e.name, v)
		}
	}
	for _, e := range snap.headers {
		for _, v := range e.values {
			header.Add(e.name, v)
		}
	}

	userAgent := snap.userAgent
	if userAgent == "" {
		userAgent = c.config.UserAgent
	}
	if userAgent != "" {
		header.Set(HeaderUserAgent, userAgent)
	}
	if c.config.RequestIDHeader != "" && header.Get(c.config.RequestIDHeader) == "" {
		header.Set(c.config.RequestIDHeader, execID)
	}

	timeout := snap.timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}

	call := &Call{
		Method:          method,
		URL:             target,
		Header:          header,
		Timeout:         timeout,
		FollowRedirects: snap.followRedirects,
		Proxy:           snap.proxy,
	}
	if method.carriesBody() {
		call.Body = []byte(snap.body)
		if header.Get(HeaderContentType) == "" {
			header.Set(HeaderContentType, ContentTypeTextPlain)
		}
	}
	return call
}

// redactURL drops user info from u for logs and spans.
func redactURL(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	cp := *u
	cp.User = nil
	return cp.String()
}
