// Package ops serves the operational HTTP endpoints: health, readiness and metrics.
package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/parfum-bot/internal/health"
	"github.com/Proton-105/parfum-bot/internal/lifecycle"
	"github.com/Proton-105/parfum-bot/internal/middleware"
	"github.com/Proton-105/parfum-bot/pkg/logger"
)

// Reporter produces a full component report.
type Reporter interface {
	Check(ctx context.Context) health.Report
}

// Deps are the collaborators behind the ops endpoints.
type Deps struct {
	Health Reporter
	Probes lifecycle.HealthChecker
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the ops handler.
//
//	GET /        plain liveness text
//	GET /healthz component report, 503 when any component fails
//	GET /livez   liveness probe
//	GET /readyz  readiness probe
//	GET /metrics prometheus exposition
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(logger.Middleware)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Bot is running"))
	})
	r.Get("/healthz", healthHandler(deps.Health, log))
	r.Get("/livez", probeHandler(deps.Probes, func(p lifecycle.HealthChecker) func(context.Context) error { return p.Liveness }))
	r.Get("/readyz", probeHandler(deps.Probes, func(p lifecycle.HealthChecker) func(context.Context) error { return p.Readiness }))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

func healthHandler(reporter Reporter, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := health.Report{Healthy: true, Components: map[string]string{}}
		if reporter != nil {
			report = reporter.Check(r.Context())
		}

		status := http.StatusOK
		if !report.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report, log)
	}
}

func probeHandler(probes lifecycle.HealthChecker, pick func(lifecycle.HealthChecker) func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if probes != nil {
			if err := pick(probes)(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("failed to encode response", slog.Any("error", err))
	}
}
