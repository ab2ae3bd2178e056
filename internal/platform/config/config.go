package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client captures the settings the banking client needs to reach its backend
// and persist session state between runs.
type Client struct {
	// APIBaseURL is the REST backend root, e.g. http://localhost:8000.
	APIBaseURL string
	// WSBaseURL is the websocket root for the notification channel,
	// e.g. ws://localhost:8000. Derived from APIBaseURL when unset.
	WSBaseURL string
	// StatePath is the durable key-value file holding the bearer token,
	// the identity mirror, and read-notification marks.
	StatePath string
	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration
	// LogLevel for the JSON logger.
	LogLevel slog.Level
}

const (
	defaultAPIBaseURL     = "http://localhost:8000"
	defaultRequestTimeout = 10 * time.Second
)

// FromEnv builds a Client config from VITTA_* environment variables so main
// stays lean. Missing values fall back to local-development defaults.
func FromEnv() Client {
	api := os.Getenv("VITTA_API_URL")
	if api == "" {
		api = defaultAPIBaseURL
	}

	ws := os.Getenv("VITTA_WS_URL")
	if ws == "" {
		ws = "ws" + strings.TrimPrefix(api, "http")
	}

	statePath := os.Getenv("VITTA_STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		statePath = filepath.Join(home, ".vitta", "state.json")
	}

	timeout := defaultRequestTimeout
	if raw := os.Getenv("VITTA_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}

	level := slog.LevelInfo
	if os.Getenv("VITTA_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	return Client{
		APIBaseURL:     api,
		WSBaseURL:      ws,
		StatePath:      statePath,
		RequestTimeout: timeout,
		LogLevel:       level,
	}
}
