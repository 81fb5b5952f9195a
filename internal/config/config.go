// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Models holds the per-role model identifiers used by the agent registry.
type Models struct {
	Scout     string
	Scholar   string
	Archivist string
	Alchemist string
	Analyst   string
	Director  string
}

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Store settings.
	TasksDBPath string // Path to the SQLite task store file.

	// Model provider settings.
	OpenAIAPIKey  string // Server-side default credential; request bearers override it.
	OpenAIBaseURL string // Optional override, e.g. a local proxy.
	Models        Models

	// Task limits.
	RateLimitMax  int           // Requests per caller per window for task creation. 0 disables.
	RateWindow    time.Duration // Fixed rate-limit window.
	MaxQueryChars int           // Hard ceiling on query length.

	// CORS.
	CORSOrigins []string

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:          envInt("RUNIX_PORT", 8787),
		ReadTimeout:   envDuration("RUNIX_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:  envDuration("RUNIX_WRITE_TIMEOUT", 30*time.Second),
		TasksDBPath:   envStr("RUNIX_TASKS_DB", "tasks.db"),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", ""),
		Models: Models{
			Scout:     envStr("MODEL_SCOUT", "gpt-4o-mini"),
			Scholar:   envStr("MODEL_SCHOLAR", "gpt-4o"),
			Archivist: envStr("MODEL_ARCHIVIST", "gpt-4o-mini"),
			Alchemist: envStr("MODEL_ALCHEMIST", "gpt-4o-mini"),
			Analyst:   envStr("MODEL_ANALYST", "gpt-4o-mini"),
			Director:  envStr("MODEL_DIRECTOR", "gpt-4o-mini"),
		},
		RateLimitMax:  envInt("RUNIX_RATE_LIMIT", 30),
		RateWindow:    envDuration("RUNIX_RATE_WINDOW", 60*time.Second),
		MaxQueryChars: envInt("RUNIX_MAX_QUERY_CHARS", 8000),
		CORSOrigins:   envList("CORS_ORIGINS", "http://localhost:3000"),
		OTELEndpoint:  envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:   envStr("OTEL_SERVICE_NAME", "runix"),
		LogLevel:      envStr("RUNIX_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.TasksDBPath == "" {
		return fmt.Errorf("config: RUNIX_TASKS_DB is required")
	}
	if c.MaxQueryChars <= 0 {
		return fmt.Errorf("config: RUNIX_MAX_QUERY_CHARS must be positive")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("config: RUNIX_RATE_WINDOW must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envList(key, defaultVal string) []string {
	raw := envStr(key, defaultVal)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
