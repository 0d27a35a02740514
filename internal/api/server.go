// Package api provides the REST API server for the zoo.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kungfuzoo/zoo/internal/audit"
	"github.com/kungfuzoo/zoo/internal/metrics"
	"github.com/kungfuzoo/zoo/internal/observability"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const welcomePage = "<p> WELCOME TO KUNGFU PANDA ZOO. LOL </p>"

// Server represents the API server.
type Server struct {
	echo      *echo.Echo
	animals   zoo.RecordStore[zoo.Animal]
	employees zoo.RecordStore[zoo.Employee]
	metrics   *metrics.Collector
	audit     *audit.Logger
	logger    *zap.Logger
	apiSpec   []byte
}

// Config holds server dependencies.
type Config struct {
	Animals       zoo.RecordStore[zoo.Animal]
	Employees     zoo.RecordStore[zoo.Employee]
	Metrics       *metrics.Collector
	Audit         *audit.Logger
	Logger        *zap.Logger
	Observability *observability.Observability
}

// NewServer creates a new API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Animals == nil || cfg.Employees == nil {
		return nil, fmt.Errorf("animal and employee stores are required: %w", zoo.ErrInvalidInput)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	apiSpec, err := loadAPISpec()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Tracing must run before logging so log lines carry the trace context
	if cfg.Observability != nil {
		e.Use(tracingMiddleware(cfg.Observability))
	}

	e.Use(loggingMiddleware(cfg.Logger))

	if cfg.Metrics != nil {
		e.Use(metricsMiddleware(cfg.Metrics))
	}

	e.Use(contextValidationMiddleware())
	e.Use(middleware.CORS())

	s := &Server{
		echo:      e,
		animals:   cfg.Animals,
		employees: cfg.Employees,
		metrics:   cfg.Metrics,
		audit:     cfg.Audit,
		logger:    cfg.Logger,
		apiSpec:   apiSpec,
	}

	s.setupRoutes()
	s.refreshRecordGauges(context.Background())

	return s, nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.frontPage)
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/metrics", s.getMetrics)
	s.echo.GET("/apispec_1.json", s.getAPISpec)

	newCollection(s, zoo.AnimalKind, s.animals).register(s.echo)
	newCollection(s, zoo.EmployeeKind, s.employees).register(s.echo)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the API server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// refreshRecordGauges publishes the current collection sizes.
func (s *Server) refreshRecordGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.animals.Len(ctx); err == nil {
		s.metrics.SetRecords(zoo.AnimalKind.Collection, n)
	}
	if n, err := s.employees.Len(ctx); err == nil {
		s.metrics.SetRecords(zoo.EmployeeKind.Collection, n)
	}
}

// loggingMiddleware creates a logging middleware with trace correlation.
func loggingMiddleware(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			fields = append(fields, observability.TraceContextFromContext(c.Request().Context())...)

			logger.Info("request", fields...)
			return nil
		},
	})
}

// metricsMiddleware records request count and latency per route.
func metricsMiddleware(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			collector.RecordRequest(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}

// errorResponse represents an error response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// messageResponse is the body of successful mutations.
type messageResponse struct {
	Message string `json:"message"`
}

// createdResponse is the body of a successful create.
type createdResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// contextValidationMiddleware checks if request context is cancelled before processing.
func contextValidationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Context().Err() != nil {
				return c.JSON(http.StatusRequestTimeout, errorResponse{
					Error:   "request_timeout",
					Message: "Request context was cancelled",
				})
			}
			return next(c)
		}
	}
}

// handleError handles store errors and returns appropriate HTTP responses.
func (s *Server) handleError(c echo.Context, kind zoo.Kind, err error) error {
	if errors.Is(err, zoo.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{
			Error: kind.Singular + " not found",
		})
	}

	if errors.Is(err, zoo.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	}

	observability.LoggerWithTraceContext(c.Request().Context(), s.logger).Error("internal server error",
		zap.String("collection", kind.Collection),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// frontPage handles GET /.
func (s *Server) frontPage(c echo.Context) error {
	return c.HTML(http.StatusOK, welcomePage)
}

// healthz handles GET /healthz.
func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getMetrics handles GET /metrics.
func (s *Server) getMetrics(c echo.Context) error {
	if s.metrics == nil {
		return c.JSON(http.StatusNotImplemented, errorResponse{
			Error:   "not_implemented",
			Message: "Metrics collection not enabled",
		})
	}

	s.metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

// getAPISpec handles GET /apispec_1.json.
func (s *Server) getAPISpec(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, s.apiSpec)
}

// requestID returns the ID assigned by the RequestID middleware.
func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
