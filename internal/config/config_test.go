package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8787, cfg.Port)
	assert.Equal(t, "tasks.db", cfg.TasksDBPath)
	assert.Equal(t, 30, cfg.RateLimitMax)
	assert.Equal(t, 60*time.Second, cfg.RateWindow)
	assert.Equal(t, 8000, cfg.MaxQueryChars)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Scout)
	assert.Equal(t, "gpt-4o", cfg.Models.Scholar)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RUNIX_PORT", "9999")
	t.Setenv("RUNIX_RATE_LIMIT", "5")
	t.Setenv("RUNIX_RATE_WINDOW", "10s")
	t.Setenv("MODEL_SCOUT", "gpt-4.1-mini")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Second, cfg.RateWindow)
	assert.Equal(t, "gpt-4.1-mini", cfg.Models.Scout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Config{TasksDBPath: "", MaxQueryChars: 8000, RateWindow: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = Config{TasksDBPath: "tasks.db", MaxQueryChars: 0, RateWindow: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = Config{TasksDBPath: "tasks.db", MaxQueryChars: 8000, RateWindow: 0}
	assert.Error(t, cfg.Validate())
}
