package httpclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/coder/quartz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/httputils/logger"
	"github.com/kbukum/httputils/observability"
	"github.com/kbukum/httputils/resilience"
	"github.com/kbukum/httputils/workerpool"
)

const instrumentationName = "github.com/kbukum/httputils/httpclient"

// Client owns the transport, the async worker pool and the telemetry used
// by every Request it creates. It is safe for concurrent use.
type Client struct {
	config Config

	transport Transport
	executor  workerpool.Executor
	pool      *workerpool.Pool
	limiter   *resilience.RateLimiter
	breaker   *resilience.CircuitBreaker
	bulkhead  *resilience.Bulkhead
	clock     quartz.Clock
	log       *logger.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *observability.ClientMetrics

	onCallbackError func(error)

	stats     counters
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Stats is a point-in-time copy of the client counters.
type Stats struct {
	Executions uint64
	Attempts   uint64
	Retries    uint64
	Failures   uint64
}

type counters struct {
	executions atomic.Uint64
	attempts   atomic.Uint64
	retries    atomic.Uint64
	failures   atomic.Uint64
}

// New creates a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: cfg,
		clock:  quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Get(cfg.Name)
	}
	if c.transport == nil {
		t, err := newNetTransport(cfg)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	if c.executor == nil {
		c.pool = workerpool.New(workerpool.Config{MaxWorkers: cfg.Workers})
		c.executor = c.pool
	}
	if cfg.RateLimiter != nil {
		c.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Clock == nil {
			cbCfg.Clock = c.clock
		}
		if cbCfg.OnStateChange == nil {
			log := c.log
			cbCfg.OnStateChange = func(name string, from, to resilience.State) {
				log.Warn("circuit breaker state changed", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
			}
		}
		c.breaker = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.Bulkhead != nil {
		bhCfg := *cfg.Bulkhead
		if bhCfg.Clock == nil {
			bhCfg.Clock = c.clock
		}
		c.bulkhead = resilience.NewBulkhead(bhCfg)
	}

	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}
	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	metrics, err := observability.NewClientMetrics(c.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	c.metrics = metrics

	return c, nil
}

// URL starts a new request for the given URL template. Path parameters are
// written as {name}.
func (c *Client) URL(rawURL string) *Request {
	return newRequest(c, rawURL)
}

// Name returns the configured client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Stats returns the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Executions: c.stats.executions.Load(),
		Attempts:   c.stats.attempts.Load(),
		Retries:    c.stats.retries.Load(),
		Failures:   c.stats.failures.Load(),
	}
}

// CircuitState returns the circuit breaker state, or StateClosed when no
// breaker is configured.
func (c *Client) CircuitState() resilience.State {
	if c.breaker == nil {
		return resilience.StateClosed
	}
	return c.breaker.State()
}

// Reset discards pooled transport state such as idle connections. In-flight
// executions are not affected.
func (c *Client) Reset() {
	if r, ok := c.transport.(Resetter); ok {
		r.Reset()
	}
	c.log.Debug("transport reset")
}

// Close stops accepting async work on the client-owned pool, waits for
// queued callbacks until ctx is done and releases idle connections.
// Synchronous calls keep working after Close. Close is idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.pool != nil {
			c.closeErr = c.pool.Shutdown(ctx)
		}
		c.Reset()
	})
	return c.closeErr
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}
