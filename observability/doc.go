// Package observability provides OpenTelemetry tracing and metrics for task
// runs, plus the health model served by the report API.
//
// Setup installs OTLP HTTP exporters when enabled and always returns usable
// instruments:
//
//	p, err := observability.Setup(ctx, cfg.Observability, "taskflow", version.Version, "ci")
//	defer p.Shutdown(ctx)
//
//	p.Metrics.RecordAttempt(ctx, "lint.sh", "success", d)
//	p.Metrics.RecordRun(ctx, "success", summary.Duration)
//
// Spans:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTask)
//	defer span.End()
//
// Health checks:
//
//	health := observability.CheckAll(ctx, "taskflow", version.Version, storeChecker)
package observability
