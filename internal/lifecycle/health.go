package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/Proton-105/parfum-bot/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes answers liveness from the process state and readiness from the
// required components of a health.Checker.
type Probes struct {
	log      *slog.Logger
	checker  *health.Checker
	required map[string]struct{}
	stopping atomic.Bool
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates probes; components not named in required are reported but never fail readiness.
func NewProbes(log *slog.Logger, checker *health.Checker, required ...string) *Probes {
	if log == nil {
		log = slog.Default()
	}
	p := &Probes{log: log, checker: checker, required: make(map[string]struct{}, len(required))}
	for _, name := range required {
		p.required[name] = struct{}{}
	}
	return p
}

// MarkStopping makes readiness fail while shutdown hooks run.
func (p *Probes) MarkStopping() {
	p.stopping.Store(true)
}

// Liveness reports success while the process runs.
func (p *Probes) Liveness(context.Context) error {
	return nil
}

// Readiness fails when shutting down or when a required component is unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.stopping.Load() {
		return fmt.Errorf("shutting down")
	}
	if p.checker == nil {
		return nil
	}

	report := p.checker.Check(ctx)
	var failed []string
	for name, status := range report.Components {
		if _, ok := p.required[name]; ok && status != "OK" {
			failed = append(failed, name+": "+status)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	sort.Strings(failed)
	p.log.Debug("readiness probe failed", slog.Any("components", failed))
	return fmt.Errorf("not ready: %s", strings.Join(failed, "; "))
}
