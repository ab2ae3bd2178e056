package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("VITTA_API_URL", "")
	t.Setenv("VITTA_WS_URL", "")
	t.Setenv("VITTA_STATE_PATH", "")
	t.Setenv("VITTA_REQUEST_TIMEOUT", "")
	t.Setenv("VITTA_LOG_LEVEL", "")

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "ws://localhost:8000", cfg.WSBaseURL)
	assert.Contains(t, cfg.StatePath, ".vitta")
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VITTA_API_URL", "https://bank.example.com")
	t.Setenv("VITTA_WS_URL", "")
	t.Setenv("VITTA_STATE_PATH", "/tmp/vitta-state.json")
	t.Setenv("VITTA_REQUEST_TIMEOUT", "3s")
	t.Setenv("VITTA_LOG_LEVEL", "debug")

	cfg := FromEnv()
	assert.Equal(t, "https://bank.example.com", cfg.APIBaseURL)
	// websocket root follows the API scheme when not set explicitly
	assert.Equal(t, "wss://bank.example.com", cfg.WSBaseURL)
	assert.Equal(t, "/tmp/vitta-state.json", cfg.StatePath)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvIgnoresBadTimeout(t *testing.T) {
	t.Setenv("VITTA_API_URL", "")
	t.Setenv("VITTA_REQUEST_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, FromEnv().RequestTimeout)
}
