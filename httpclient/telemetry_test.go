package httpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/httputils/observability"
	"github.com/kbukum/httputils/resilience"
)

type telemetry struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	opts   []Option
}

func newTelemetry() *telemetry {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &telemetry{
		spans:  spans,
		reader: reader,
		opts: []Option{
			WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))),
			WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
		},
	}
}

func (tel *telemetry) sums(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func spanAttr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTelemetry_SuccessfulRetry(t *testing.T) {
	tel := newTelemetry()
	tr := script(status(500), status(200))
	c := newTestClient(t, Config{Name: "billing"}, append(tel.opts, WithTransport(tr))...)

	resp, err := c.URL("http://user:secret@h/x").
		Retry(2, resilience.RetryStandard(), resilience.WaitNone()).
		Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, resp.Close())

	ended := tel.spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, "HTTP GET", span.Name())
	assert.Equal(t, "http://h/x", spanAttr(span.Attributes(), "url.full").AsString())
	assert.Equal(t, "billing", spanAttr(span.Attributes(), "httpclient.name").AsString())
	assert.Equal(t, int64(200), spanAttr(span.Attributes(), "http.response.status_code").AsInt64())
	assert.Equal(t, int64(2), spanAttr(span.Attributes(), "httpclient.attempts").AsInt64())
	assert.Len(t, span.Events(), 2)
	assert.NotEqual(t, codes.Error, span.Status().Code)

	sums := tel.sums(t)
	assert.Equal(t, int64(2), sums[observability.MetricAttempts])
	assert.Equal(t, int64(1), sums[observability.MetricRetries])
	assert.Equal(t, int64(0), sums[observability.MetricExhausted])
}

func TestTelemetry_Exhausted(t *testing.T) {
	tel := newTelemetry()
	tr := script(status(503), status(503))
	c := newTestClient(t, Config{}, append(tel.opts, WithTransport(tr))...)

	_, err := c.URL("http://h/x").
		Retry(1, resilience.RetryStandard(), resilience.WaitNone()).
		Delete(context.Background())
	require.Error(t, err)

	ended := tel.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "HTTP DELETE", ended[0].Name())

	sums := tel.sums(t)
	assert.Equal(t, int64(1), sums[observability.MetricExhausted])
	assert.Equal(t, int64(2), sums[observability.MetricAttempts])
}

func TestTelemetry_AsyncInFlightReturnsToZero(t *testing.T) {
	tel := newTelemetry()
	c := newTestClient(t, Config{}, append(tel.opts, WithTransport(script(status(200))))...)

	rec := newRecorder()
	c.URL("http://h/").GetAsync(context.Background(), rec)
	assert.Equal(t, 200, rec.waitResponse(t))

	require.Eventually(t, func() bool {
		return tel.sums(t)[observability.MetricAsyncInFlight] == 0
	}, time.Second, 5*time.Millisecond)
}
