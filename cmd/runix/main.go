package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/config"
	"github.com/runix-ai/runix/internal/llm"
	"github.com/runix-ai/runix/internal/orchestrator"
	"github.com/runix-ai/runix/internal/ratelimit"
	"github.com/runix-ai/runix/internal/server"
	"github.com/runix-ai/runix/internal/storage"
	"github.com/runix-ai/runix/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("RUNIX_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("runix starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Open the task store and apply the schema.
	store, err := storage.Open(cfg.TasksDBPath, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("storage init: %w", err)
	}

	// The registry is unavailable without a server-side credential; requests
	// then rely on per-request bearers and the direct completion path.
	registry := agent.NewRegistry(cfg.Models, cfg.OpenAIAPIKey != "")
	if !registry.Available() {
		logger.Warn("no OPENAI_API_KEY configured, agent personas degraded to direct completions")
	}

	client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	orch := orchestrator.New(store, registry, client, logger)

	var limiter ratelimit.Limiter
	if cfg.RateLimitMax > 0 {
		wl := ratelimit.NewWindowLimiter(cfg.RateLimitMax, cfg.RateWindow)
		defer func() { _ = wl.Close() }()
		limiter = wl
		logger.Info("rate limiting: fixed window",
			"limit", cfg.RateLimitMax, "window", cfg.RateWindow.String())
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	srv := server.New(server.ServerConfig{
		Store:         store,
		Registry:      registry,
		Orchestrator:  orch,
		Limiter:       limiter,
		Logger:        logger,
		Port:          cfg.Port,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
		Version:       version,
		CORSOrigins:   cfg.CORSOrigins,
		DefaultAPIKey: cfg.OpenAIAPIKey,
		MaxQueryChars: cfg.MaxQueryChars,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("runix shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("runix stopped")
	return nil
}
