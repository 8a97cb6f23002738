// Package api exposes facility predictions, graph queries, cascade
// analysis and portfolio analytics over plain JSON HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/service"
)

// TraceProvider supplies tracers for handler spans.
type TraceProvider interface {
	Tracer(name string) trace.Tracer
	IsEnabled() bool
}

// Server handles HTTP API requests over one loaded portfolio.
type Server struct {
	port      int
	server    *http.Server
	logger    *logging.Logger
	predictor *service.Predictor
	router    *http.ServeMux
	gatherer  prometheus.Gatherer
	tracer    trace.Tracer
}

// New creates an API server over the given predictor. gatherer backs the
// /metrics endpoint and may be nil; tracingProvider may be nil.
func New(port int, predictor *service.Predictor, gatherer prometheus.Gatherer, tracingProvider TraceProvider) *Server {
	s := &Server{
		port:      port,
		logger:    logging.GetLogger("api"),
		predictor: predictor,
		router:    http.NewServeMux(),
		gatherer:  gatherer,
	}

	if tracingProvider != nil && tracingProvider.IsEnabled() {
		s.tracer = tracingProvider.Tracer("covtrace.api")
	} else {
		s.tracer = otel.GetTracerProvider().Tracer("covtrace.api")
	}

	s.registerHandlers()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.corsMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerHandlers registers all HTTP routes.
func (s *Server) registerHandlers() {
	s.router.HandleFunc("/api/v1/facilities/", s.withMethod(http.MethodGet, s.handleFacilityPrediction))
	s.router.HandleFunc("/api/v1/portfolio/prediction", s.withMethod(http.MethodPost, s.handlePortfolioPrediction))
	s.router.HandleFunc("/api/v1/graph/query", s.withMethod(http.MethodGet, s.handleGraphQuery))
	s.router.HandleFunc("/api/v1/cascade", s.withMethod(http.MethodGet, s.handleCascade))
	s.router.HandleFunc("/api/v1/analytics", s.withMethod(http.MethodGet, s.handleAnalytics))

	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Start begins listening for requests. It returns immediately; serving
// happens in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.logger.Info("starting API server on port %d", s.port)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error: %v", err)
		return err
	}

	s.logger.Info("API server stopped")
	return nil
}

// Handler returns the configured route handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

// requestLogger attaches the active span's trace and span ids so log
// lines can be correlated with traces. Without a valid span context the
// base logger comes back unchanged.
func (s *Server) requestLogger(ctx context.Context) *logging.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return s.logger
	}
	ctx = context.WithValue(ctx, logging.TraceIDKey(), sc.TraceID().String())
	ctx = context.WithValue(ctx, logging.SpanIDKey(), sc.SpanID().String())
	return s.logger.WithContext(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.predictor != nil

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, map[string]interface{}{"ready": ready})
}
