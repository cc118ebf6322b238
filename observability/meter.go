package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/httputils/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Metric names recorded by ClientMetrics.
const (
	MetricAttempts       = "httpclient.attempts"
	MetricRetries        = "httpclient.retries"
	MetricExhausted      = "httpclient.exhausted"
	MetricDuration       = "httpclient.duration"
	MetricAsyncInFlight  = "httpclient.async.inflight"
	attrClient           = "client"
	attrMethod           = "method"
	attrOutcome          = "outcome"
	attrStatusCode       = "status_code"
	attrExhaustionReason = "reason"
)

// ClientMetrics holds the instruments recorded by the HTTP client execution
// engine. A nil *ClientMetrics records nothing.
type ClientMetrics struct {
	attempts      metric.Int64Counter
	retries       metric.Int64Counter
	exhausted     metric.Int64Counter
	duration      metric.Float64Histogram
	asyncInFlight metric.Int64UpDownCounter
}

// NewClientMetrics creates the client instruments on meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	attempts, err := meter.Int64Counter(MetricAttempts,
		metric.WithDescription("Transport calls made, by status code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricAttempts, err)
	}

	retries, err := meter.Int64Counter(MetricRetries,
		metric.WithDescription("Retries scheduled by a retry policy"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRetries, err)
	}

	exhausted, err := meter.Int64Counter(MetricExhausted,
		metric.WithDescription("Executions that ran out of retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricExhausted, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of executions including all retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	asyncInFlight, err := meter.Int64UpDownCounter(MetricAsyncInFlight,
		metric.WithDescription("Async executions submitted and not yet delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricAsyncInFlight, err)
	}

	return &ClientMetrics{
		attempts:      attempts,
		retries:       retries,
		exhausted:     exhausted,
		duration:      duration,
		asyncInFlight: asyncInFlight,
	}, nil
}

// RecordAttempt counts one transport call. status is 0 when err is set.
func (m *ClientMetrics) RecordAttempt(ctx context.Context, client, method string, status int, err error) {
	if m == nil {
		return
	}
	outcome := "response"
	if err != nil {
		outcome = "error"
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrClient, client),
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
		attribute.Int(attrStatusCode, status),
	))
}

// RecordRetry counts one scheduled retry.
func (m *ClientMetrics) RecordRetry(ctx context.Context, client, method string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrClient, client),
		attribute.String(attrMethod, method),
	))
}

// RecordExhausted counts an execution that used up its retries.
func (m *ClientMetrics) RecordExhausted(ctx context.Context, client, method, reason string) {
	if m == nil {
		return
	}
	m.exhausted.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrClient, client),
		attribute.String(attrMethod, method),
		attribute.String(attrExhaustionReason, reason),
	))
}

// RecordExecution records the duration of a finished execution.
func (m *ClientMetrics) RecordExecution(ctx context.Context, client, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(attrClient, client),
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	))
}

// AsyncStarted increments the in-flight async gauge.
func (m *ClientMetrics) AsyncStarted(ctx context.Context, client string) {
	if m == nil {
		return
	}
	m.asyncInFlight.Add(ctx, 1, metric.WithAttributes(attribute.String(attrClient, client)))
}

// AsyncFinished decrements the in-flight async gauge.
func (m *ClientMetrics) AsyncFinished(ctx context.Context, client string) {
	if m == nil {
		return
	}
	m.asyncInFlight.Add(ctx, -1, metric.WithAttributes(attribute.String(attrClient, client)))
}
