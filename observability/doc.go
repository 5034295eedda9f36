// Package observability wires OpenTelemetry tracing and metrics for the
// dictation pipeline.
//
// Export is opt-in through Config.Enabled. Without it the global no-op
// providers stay installed, so spans and instruments cost nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "dictation", version.Short())
//	defer shutdown(context.Background())
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
//	defer observability.EndSpan(span, err)
package observability
