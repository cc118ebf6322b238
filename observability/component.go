package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/httputils/component"
)

// Config selects whether and where telemetry is exported.
type Config struct {
	// Enabled turns on OTLP export. Disabled telemetry leaves the global
	// no-op providers in place.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure disables TLS towards the endpoint.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the fraction of executions traced.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// MetricInterval is the metric export period.
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills in the endpoint, sample rate and export interval.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Component installs the tracer and meter providers on Start and flushes
// them on Stop.
type Component struct {
	config  Config
	service string
	version string
	env     string

	mu sync.Mutex
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a telemetry component for the named service.
func NewComponent(cfg Config, service, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, service: service, version: version, env: environment}
}

// Name implements component.Component.
func (c *Component) Name() string { return "telemetry" }

// Start implements component.Component.
func (c *Component) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tp != nil {
		return fmt.Errorf("telemetry: already started")
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.env,
		Endpoint:       c.config.Endpoint,
		Insecure:       c.config.Insecure,
		SampleRate:     c.config.SampleRate,
	})
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.env,
		Endpoint:       c.config.Endpoint,
		Insecure:       c.config.Insecure,
		Interval:       c.config.MetricInterval,
	})
	if err != nil {
		return errors.Join(err, tp.Shutdown(ctx))
	}
	c.tp, c.mp = tp, mp
	return nil
}

// Stop flushes and shuts down both providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	tp, mp := c.tp, c.mp
	c.tp, c.mp = nil, nil
	c.mu.Unlock()

	var errs []error
	if tp != nil {
		errs = append(errs, tp.Shutdown(ctx))
	}
	if mp != nil {
		errs = append(errs, mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.config.Enabled {
		h.Message = "disabled"
		return h
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tp == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.config.Enabled {
		details = fmt.Sprintf("endpoint=%s sample_rate=%g", c.config.Endpoint, c.config.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
