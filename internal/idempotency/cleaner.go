package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner deletes update keys that have no expiry or one longer than maxTTL,
// which happens when a key is written by hand or by an older release.
type Cleaner struct {
	client   redis.Cmdable
	log      *slog.Logger
	interval time.Duration
	maxTTL   time.Duration
}

func NewCleaner(client redis.Cmdable, log *slog.Logger, interval, maxTTL time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{client: client, log: log, interval: interval, maxTTL: maxTTL}
}

func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.client == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(ctx); removed > 0 {
				c.log.Info("stale idempotency keys removed", slog.Int("keys", removed))
			}
		}
	}
}

// Sweep performs one scan and returns the number of deleted keys.
func (c *Cleaner) Sweep(ctx context.Context) int {
	removed := 0

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		// TTL is -1 without expiry and -2 once the key is gone
		ttl, err := c.client.TTL(ctx, key).Result()
		if err != nil {
			c.log.Warn("idempotency ttl lookup failed", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if ttl != -1 && ttl <= c.maxTTL {
			continue
		}

		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.log.Warn("failed to delete stale idempotency key", slog.String("key", key), slog.Any("error", err))
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		c.log.Error("idempotency cleaner scan failed", slog.Any("error", err))
	}

	return removed
}
