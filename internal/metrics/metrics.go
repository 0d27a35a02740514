// Package metrics provides Prometheus metrics for the zoo API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Store operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Collector owns a private registry and the zoo metric vectors.
type Collector struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	storeOperations *prometheus.CounterVec
	records         *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoo_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zoo_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route"},
	)

	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoo_store_operations_total",
			Help: "Total store operations by collection, operation and result",
		},
		[]string{"collection", "operation", "result"},
	)

	records := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zoo_records",
			Help: "Current number of records per collection",
		},
		[]string{"collection"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		storeOperations,
		records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:        registry,
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		storeOperations: storeOperations,
		records:         records,
		logger:          logger,
	}
}

// RecordRequest records one handled HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, latency time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// RecordStoreOperation records one store call.
func (c *Collector) RecordStoreOperation(collection, operation, result string) {
	c.storeOperations.WithLabelValues(collection, operation, result).Inc()
}

// SetRecords sets the current size of a collection.
func (c *Collector) SetRecords(collection string, n int) {
	c.records.WithLabelValues(collection).Set(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	opts := promhttp.HandlerOpts{}
	if c.logger != nil {
		opts.ErrorLog = zap.NewStdLog(c.logger)
	}
	return promhttp.HandlerFor(c.registry, opts)
}
