// Package observability provides OpenTelemetry tracing and metrics setup and
// the metric instruments recorded by the HTTP client.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
// Clients created after InitTracer and InitMeter pick up the global
// providers. Use httpclient.WithTracerProvider and WithMeterProvider to pass
// them explicitly instead.
package observability
