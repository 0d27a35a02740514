// Package observability exports zoo API traces and request metrics through
// OpenTelemetry. Spans and metrics are written as pretty-printed JSON to a
// single writer so a daemon needs no collector to inspect them.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Instrument names.
const (
	InstrumentZooRequests      = "zoo.api.requests"
	InstrumentZooLatency       = "zoo.api.latency"
	InstrumentZooRecordChanges = "zoo.record.changes"
)

// Config selects where the zoo daemon sends its telemetry.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Writer defaults to os.Stderr.
	Writer io.Writer
	Logger *zap.Logger
}

func (cfg *Config) setDefaults() {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "zoo"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "0.1.0"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Observability owns the zoo tracer and meter along with the instruments fed
// by the HTTP layer.
type Observability struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	tracer  trace.Tracer
	meter   metric.Meter
	logger  *zap.Logger

	requests      metric.Int64Counter
	latency       metric.Float64Histogram
	recordChanges metric.Int64Counter
}

// NewObservability installs global tracer and meter providers for the zoo
// service and registers its instruments.
func NewObservability(cfg Config) (*Observability, error) {
	cfg.setDefaults()

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	spans, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(cfg.Writer))
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	points, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(cfg.Writer))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	o := &Observability{
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spans),
			sdktrace.WithResource(res),
		),
		metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points)),
			sdkmetric.WithResource(res),
		),
		logger: cfg.Logger,
	}
	otel.SetTracerProvider(o.traces)
	otel.SetMeterProvider(o.metrics)
	o.tracer = o.traces.Tracer(cfg.ServiceName)
	o.meter = o.metrics.Meter(cfg.ServiceName)

	if err := o.registerInstruments(); err != nil {
		return nil, errors.Join(err, o.Shutdown(context.Background()))
	}

	o.logger.Debug("OpenTelemetry exporters ready",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment))
	return o, nil
}

func (o *Observability) registerInstruments() error {
	var err error

	if o.requests, err = o.meter.Int64Counter(InstrumentZooRequests,
		metric.WithDescription("Zoo API requests by route and status"),
	); err != nil {
		return fmt.Errorf("register %s: %w", InstrumentZooRequests, err)
	}

	if o.latency, err = o.meter.Float64Histogram(InstrumentZooLatency,
		metric.WithDescription("Zoo API request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("register %s: %w", InstrumentZooLatency, err)
	}

	if o.recordChanges, err = o.meter.Int64Counter(InstrumentZooRecordChanges,
		metric.WithDescription("Animal and employee records created, replaced or removed"),
	); err != nil {
		return fmt.Errorf("register %s: %w", InstrumentZooRecordChanges, err)
	}

	return nil
}

// Tracer returns the zoo service tracer.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

// Meter returns the zoo service meter.
func (o *Observability) Meter() metric.Meter {
	return o.meter
}

// StartSpan starts a span on the zoo service tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// RecordRequest records one finished API request. Successful writes to a
// collection route also count as a record change for that collection.
func (o *Observability) RecordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	o.requests.Add(ctx, 1, attrs)
	o.latency.Record(ctx, elapsed.Seconds(), attrs)

	change := recordChange(method, status)
	collection := collectionOf(route)
	if change == "" || collection == "" {
		return
	}
	o.recordChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("zoo.collection", collection),
		attribute.String("zoo.change", change),
	))
}

// recordChange maps a successful write method to the change it made.
func recordChange(method string, status int) string {
	if status < 200 || status >= 300 {
		return ""
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return ""
}

// collectionOf returns the collection a route such as /animals/:id belongs
// to, or "" for routes outside the collections.
func collectionOf(route string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(route, "/"), "/")
	switch name {
	case "animals", "employees":
		return name
	}
	return ""
}

// Shutdown flushes pending spans and metric points.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.traces != nil {
		if err := o.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if o.metrics != nil {
		if err := o.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
