// Package observability provides OpenTelemetry tracing and metrics for
// flow runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "flow.run")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewFlowMetrics(observability.Meter("my-service"))
//	metrics.RecordStep(ctx, "parse", "ok", duration)
//
// Both providers can be initialized together from a single Config:
//
//	providers, err := cfg.Init(ctx)
//	defer providers.Shutdown(ctx)
//
// Health checks aggregate per-component entries into a service snapshot:
//
//	health := observability.Collect(ctx, "my-service", "1.0.0", checkers...)
package observability
