package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/orchestrator"
	"github.com/runix-ai/runix/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store         *storage.Store
	registry      *agent.Registry
	orch          *orchestrator.Orchestrator
	logger        *slog.Logger
	startedAt     time.Time
	version       string
	defaultAPIKey string
	maxQueryChars int
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	Store         *storage.Store
	Registry      *agent.Registry
	Orchestrator  *orchestrator.Orchestrator
	Logger        *slog.Logger
	Version       string
	DefaultAPIKey string
	MaxQueryChars int
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:         d.Store,
		registry:      d.Registry,
		orch:          d.Orchestrator,
		logger:        d.Logger,
		startedAt:     time.Now(),
		version:       d.Version,
		defaultAPIKey: d.DefaultAPIKey,
		maxQueryChars: d.MaxQueryChars,
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  h.version,
		"uptime_s": int(time.Since(h.startedAt).Seconds()),
	})
}
