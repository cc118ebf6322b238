package httpclient

import (
	"github.com/coder/quartz"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/httputils/logger"
	"github.com/kbukum/httputils/workerpool"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to logger.Get(cfg.Name).
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport replaces the net/http transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithExecutor sets the default executor for async calls. The client does
// not shut down an executor it did not create.
func WithExecutor(e workerpool.Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.executor = e
		}
	}
}

// WithClock sets the clock used for backoff waits and durations.
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithCallbackErrorHandler receives ErrCodeCallback errors for panics
// raised inside async callbacks. Without it they are only logged.
func WithCallbackErrorHandler(fn func(error)) Option {
	return func(c *Client) {
		c.onCallbackError = fn
	}
}
