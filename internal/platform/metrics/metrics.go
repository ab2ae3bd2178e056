package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the client core.
type Metrics struct {
	// Session metrics
	LoginAttempts    *prometheus.CounterVec
	BootstrapResults *prometheus.CounterVec

	// Challenge metrics
	ChallengeSubmissions *prometheus.CounterVec
	ChallengeOpens       prometheus.Counter

	// Transport metrics
	RequestLatency   *prometheus.HistogramVec
	RequestFailures  *prometheus.CounterVec
	NotifyReconnects prometheus.Counter
	NotifyUpdates    prometheus.Counter
}

// New creates and registers all Prometheus metrics on the given registerer.
// Every caller passes its own registry so tests and processes stay
// independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitta_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		BootstrapResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitta_bootstrap_results_total",
			Help: "Session bootstrap results (authoritative, mirror_fallback, cleared, anonymous)",
		}, []string{"result"}),
		ChallengeSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitta_challenge_submissions_total",
			Help: "Challenge verifier submissions by mode and outcome",
		}, []string{"mode", "outcome"}),
		ChallengeOpens: factory.NewCounter(prometheus.CounterOpts{
			Name: "vitta_challenge_opens_total",
			Help: "Times a challenge verifier was opened",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vitta_request_latency_seconds",
			Help:    "Latency of backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RequestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitta_request_failures_total",
			Help: "Backend call failures by domain error code",
		}, []string{"endpoint", "code"}),
		NotifyReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "vitta_notify_reconnects_total",
			Help: "Websocket reconnect attempts",
		}),
		NotifyUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "vitta_notify_updates_total",
			Help: "Update frames received on the notification channel",
		}),
	}
}
