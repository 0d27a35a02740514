package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceContextFromContext returns trace_id/span_id zap fields for the span
// recorded in ctx, or nil when ctx carries no recording span.
func TraceContextFromContext(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}

	sc := span.SpanContext()
	if !sc.IsValid() {
		return nil
	}

	fields := []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
	if sc.TraceFlags().IsSampled() {
		fields = append(fields, zap.Bool("trace_sampled", true))
	}
	return fields
}

// LoggerWithTraceContext returns baseLogger annotated with the trace fields of ctx.
func LoggerWithTraceContext(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if baseLogger == nil {
		return nil
	}

	fields := TraceContextFromContext(ctx)
	if len(fields) == 0 {
		return baseLogger
	}
	return baseLogger.With(fields...)
}
