package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cleanupScanCount = 100

// Cleaner forgets chats that went quiet: memory windows and Redis sets whose
// newest admission is older than maxAge. Redis keys also carry an expiry;
// the sweep catches keys written without one.
type Cleaner struct {
	client   redis.Cmdable
	memory   *MemoryLimiter
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleaner constructs a Cleaner. Either backend may be nil.
func NewCleaner(client redis.Cmdable, memory *MemoryLimiter, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{client: client, memory: memory, log: log, interval: interval, maxAge: maxAge}
}

// Run sweeps every interval until ctx ends.
func (c *Cleaner) Run(ctx context.Context) {
	if (c.client == nil && c.memory == nil) || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("rate limit cleaner stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep performs one pass over both backends and returns the number of keys removed.
func (c *Cleaner) Sweep(ctx context.Context) int {
	removed := 0
	if c.memory != nil {
		removed += c.memory.Cleanup(c.maxAge)
	}
	if c.client != nil && ctx.Err() == nil {
		removed += c.sweepRedis(ctx)
	}

	if removed > 0 {
		c.log.Info("stale rate limit windows removed", slog.Int("keys", removed))
	}
	return removed
}

func (c *Cleaner) sweepRedis(ctx context.Context) int {
	cutoff := "(" + strconv.FormatInt(time.Now().Add(-c.maxAge).UnixMilli(), 10)
	removed := 0

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", cleanupScanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		pipe := c.client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		card := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Warn("rate limit cleanup failed", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if card.Val() > 0 {
			continue
		}

		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		c.log.Error("rate limit scan failed", slog.Any("error", err))
	}

	return removed
}
