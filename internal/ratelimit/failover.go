package ratelimit

import (
	"context"
	"log/slog"

	"github.com/Proton-105/parfum-bot/pkg/metrics"
)

// FailoverLimiter asks the primary (Redis) limiter first. When the primary
// errors, the fallback decides with half the limit, so an outage tightens
// throttling instead of lifting it.
type FailoverLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*FailoverLimiter)(nil)

func NewFailoverLimiter(primary, fallback Limiter, log *slog.Logger) *FailoverLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &FailoverLimiter{primary: primary, fallback: fallback, log: log}
}

func (f *FailoverLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	decision, err := f.primary.Allow(ctx, key, rule)
	if err == nil {
		metrics.RecordRateLimitDecision(decision.Backend, decision.Allowed)
		return decision, nil
	}

	metrics.RecordRateLimitFailover()
	f.log.Warn("primary rate limiter failed, using fallback", slog.String("key", key), slog.Any("error", err))

	strict := Rule{Limit: max(rule.Limit/2, 1), Window: rule.Window}
	decision, err = f.fallback.Allow(ctx, key, strict)
	if err != nil {
		return decision, err
	}

	metrics.RecordRateLimitDecision(decision.Backend, decision.Allowed)
	return decision, nil
}
