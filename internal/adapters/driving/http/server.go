package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
	"github.com/medivault-ai/medivault-core/internal/metrics"
	"github.com/medivault-ai/medivault-core/internal/runtime"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	// Services
	retrievalService driving.RetrievalService
	analyticsService driving.AnalyticsService
	contentService   driving.ContentService
	exportService    driving.ExportService

	// Infrastructure
	identity  driven.IdentityVerifier
	readiness *runtime.Services
	metrics   *metrics.Metrics
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// Dependencies are the services the server fronts
type Dependencies struct {
	Retrieval driving.RetrievalService
	Analytics driving.AnalyticsService
	Content   driving.ContentService
	Export    driving.ExportService

	Identity  driven.IdentityVerifier // nil runs in development mode
	Readiness *runtime.Services       // Optional: nil reports ready
	Metrics   *metrics.Metrics        // Optional: nil disables /metrics
	Logger    *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		logger:           logger,
		retrievalService: deps.Retrieval,
		analyticsService: deps.Analytics,
		contentService:   deps.Content,
		exportService:    deps.Export,
		identity:         deps.Identity,
		readiness:        deps.Readiness,
		metrics:          deps.Metrics,
	}

	s.setupRoutes()

	// Outermost first: logging sees the final status, recovery turns panics into 500s
	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)
	handler = NewLoggingMiddleware(logger, deps.Metrics).Handler(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // chat answers can take a while upstream
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	identity := NewIdentityMiddleware(s.identity)
	authed := func(h http.HandlerFunc) http.Handler {
		return identity.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Retrieval
	s.router.Handle("POST /routes/search", authed(s.handleSearch))
	s.router.Handle("POST /routes/chat", authed(s.handleChat))
	s.router.Handle("POST /routes/export", authed(s.handleExport))

	// Analytics
	s.router.Handle("POST /routes/log-query", authed(s.handleLogQuery))
	s.router.Handle("GET /routes/queries", authed(s.handleQueryHistory))
	s.router.Handle("GET /routes/stats", authed(s.handleQueryStats))
	s.router.Handle("GET /routes/analytics/summary", authed(s.handleAnalyticsSummary))

	// Content
	s.router.Handle("GET /routes/content-analysis/metrics", authed(s.handleContentMetrics))
	s.router.Handle("GET /routes/indexing/status", authed(s.handleIndexStatus))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
