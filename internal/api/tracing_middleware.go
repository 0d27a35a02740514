package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kungfuzoo/zoo/internal/observability"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracingMiddleware creates OpenTelemetry tracing middleware for Echo.
func tracingMiddleware(obs *observability.Observability) echo.MiddlewareFunc {
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			// Continue a trace started by the caller, if any
			ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := c.Path()
			ctx, span := obs.Tracer().Start(
				ctx,
				req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.url", req.URL.String()),
					attribute.String("http.route", route),
					attribute.String("http.user_agent", req.UserAgent()),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int64("http.response.size", c.Response().Size),
			)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}

			obs.RecordRequest(ctx, req.Method, route, status, time.Since(start))

			return err
		}
	}
}
