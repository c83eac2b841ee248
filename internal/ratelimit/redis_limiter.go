package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter keeps one sorted set per key, scored by admission time in
// milliseconds.
type RedisLimiter struct {
	client redis.Cmdable
	log    *slog.Logger
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{client: client, log: log, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if l.client == nil {
		return Decision{}, errors.New("redis client is not configured for rate limiting")
	}

	now := l.now()
	if rule.Limit <= 0 {
		return Decision{Backend: BackendRedis, RetryAfter: rule.Window}, nil
	}

	redisKey := keyPrefix + key
	member := uuid.NewString()
	cutoff := "(" + strconv.FormatInt(now.Add(-rule.Window).UnixMilli(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, 2*rule.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return Decision{}, err
	}

	count := int(countCmd.Val())
	decision := Decision{
		Allowed:   count <= rule.Limit,
		Remaining: max(rule.Limit-count, 0),
		Backend:   BackendRedis,
	}
	if decision.Allowed {
		return decision, nil
	}

	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		l.log.Warn("rate limiter failed to drop rejected update", slog.String("key", key), slog.Any("error", err))
	}
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		decision.RetryAfter = retryAfter(time.UnixMilli(int64(oldest[0].Score)), rule.Window, now)
	}

	return decision, nil
}
