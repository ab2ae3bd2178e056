// Package notify consumes the backend's websocket push channel. The channel
// carries a single opaque "update" signal that tells dashboard views to
// refresh their read-only data; it never writes into session or challenge
// state.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vitta/internal/platform/metrics"
)

const (
	updateSignal   = "update"
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Listener maintains a connection to /ws/{clientId} and invokes the refresh
// callback for every update frame. It reconnects with capped exponential
// backoff until its context is cancelled.
type Listener struct {
	baseURL  string
	clientID string
	dialer   *websocket.Dialer
	onUpdate func()
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Listener)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Listener) { l.metrics = m }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) { l.dialer = d }
}

// WithClientID overrides the random per-process client identifier.
func WithClientID(id string) Option {
	return func(l *Listener) { l.clientID = id }
}

// NewListener builds a listener for the given websocket root
// (e.g. ws://localhost:8000). Each process gets a fresh client identifier.
func NewListener(baseURL string, onUpdate func(), opts ...Option) *Listener {
	l := &Listener{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: uuid.NewString(),
		onUpdate: onUpdate,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.dialer == nil {
		l.dialer = websocket.DefaultDialer
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// ClientID returns the identifier used in the websocket path.
func (l *Listener) ClientID() string {
	return l.clientID
}

// Run connects and consumes frames until ctx is cancelled. It always returns
// ctx.Err(); connection failures are retried, not surfaced.
func (l *Listener) Run(ctx context.Context) error {
	backoff := initialBackoff
	url := l.baseURL + "/ws/" + l.clientID
	for {
		conn, _, err := l.dialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.WarnContext(ctx, "websocket dial failed", "url", url, "error", err)
			if l.metrics != nil {
				l.metrics.NotifyReconnects.Inc()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = initialBackoff
		l.logger.InfoContext(ctx, "notification channel connected", "client_id", l.clientID)
		l.consume(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if l.metrics != nil {
			l.metrics.NotifyReconnects.Inc()
		}
	}
}

// consume reads frames until the connection drops or ctx is cancelled.
func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				l.logger.WarnContext(ctx, "notification channel dropped", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if strings.TrimSpace(string(payload)) != updateSignal {
			continue
		}
		if ctx.Err() != nil {
			// frame raced the shutdown; a stopped listener mutates nothing
			return
		}
		if l.metrics != nil {
			l.metrics.NotifyUpdates.Inc()
		}
		if l.onUpdate != nil {
			l.onUpdate()
		}
	}
}
