// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/parfum-bot/internal/session"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot updates handled, labeled by action and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_step_transitions_total",
			Help: "Total number of conversation step transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"type", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of in-progress sessions",
		},
	)
	ledgerSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_submissions_total",
			Help: "Ledger submissions labeled by transaction mode and result",
		},
		[]string{"mode", "result"},
	)
	catalogRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Catalog refresh attempts labeled by result",
		},
		[]string{"result"},
	)
	catalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of entries in the catalog snapshot",
		},
	)
	rateLimitDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limit decisions labeled by backend and result",
		},
		[]string{"backend", "result"},
	)
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per dependency: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)
	rateLimitFailoversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratelimit_failovers_total",
			Help: "Rate limit checks answered by the fallback backend after a primary failure",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation step changes.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// RecordLedgerSubmission counts a ledger submission outcome.
func RecordLedgerSubmission(mode string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ledgerSubmissionsTotal.WithLabelValues(mode, result).Inc()
}

// RecordCatalogRefresh counts a refresh outcome and the resulting snapshot size.
func RecordCatalogRefresh(err error, entries int) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	catalogRefreshTotal.WithLabelValues(result).Inc()
	catalogEntries.Set(float64(entries))
}

// RecordRateLimitDecision counts one admitted or rejected update.
func RecordRateLimitDecision(backend string, allowed bool) {
	result := "rejected"
	if allowed {
		result = "allowed"
	}
	rateLimitDecisionsTotal.WithLabelValues(backend, result).Inc()
}

// RecordRateLimitFailover counts a check served by the fallback limiter.
func RecordRateLimitFailover() {
	rateLimitFailoversTotal.Inc()
}

// SetBreakerState publishes the state of the named circuit breaker.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// SetActiveSessions updates the gauge for in-progress sessions.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

func init() {
	session.RegisterTransitionRecorder(func(from, to session.Step) {
		RecordStateTransition(string(from), string(to))
	})
}

// SessionCollector periodically samples the session registry size.
type SessionCollector struct {
	registry session.Registry
	interval time.Duration
}

// NewSessionCollector builds a collector bound to the provided registry.
func NewSessionCollector(registry session.Registry, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &SessionCollector{registry: registry, interval: interval}
}

// Run samples the registry until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.registry == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *SessionCollector) collect(ctx context.Context) {
	count, err := c.registry.Count(ctx)
	if err != nil {
		return
	}
	SetActiveSessions(count)
}
