package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/orchestrator"
	"github.com/runix-ai/runix/internal/ratelimit"
	"github.com/runix-ai/runix/internal/storage"
)

// Server is the Runix HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Limiter is optional; nil disables rate limiting.
type ServerConfig struct {
	// Required dependencies.
	Store        *storage.Store
	Registry     *agent.Registry
	Orchestrator *orchestrator.Orchestrator
	Logger       *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter ratelimit.Limiter

	// HTTP server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
	CORSOrigins  []string

	// Task settings.
	DefaultAPIKey string
	MaxQueryChars int
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Store:         cfg.Store,
		Registry:      cfg.Registry,
		Orchestrator:  cfg.Orchestrator,
		Logger:        cfg.Logger,
		Version:       cfg.Version,
		DefaultAPIKey: cfg.DefaultAPIKey,
		MaxQueryChars: cfg.MaxQueryChars,
	})

	// Only task creation is rate limited; reads and long-lived streams
	// are not.
	createRL := ratelimit.Middleware(cfg.Limiter, ratelimit.IPKeyFunc)

	mux := http.NewServeMux()

	mux.Handle("POST /v1/tasks", createRL(http.HandlerFunc(h.HandleCreateTask)))
	mux.HandleFunc("GET /v1/tasks/{task_id}", h.HandleGetTask)
	mux.HandleFunc("POST /v1/tasks/{task_id}/continue", h.HandleContinueTask)

	mux.HandleFunc("GET /v1/agents", h.HandleListAgents)
	mux.HandleFunc("GET /v1/agents/aliases", h.HandleListAliases)
	mux.HandleFunc("GET /v1/evidence", h.HandleListEvidence)

	// Transcript replay (no rate limit, long-lived connection).
	mux.HandleFunc("GET /v1/streams/tasks/{task_id}", h.HandleStreamTask)

	// Health (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → CORS → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = corsMiddleware(cfg.CORSOrigins, handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
