package idempotency

import (
	"context"
	_ "embed"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the state stored under an update key.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Store keeps update keys.
type Store interface {
	// Claim sets key to processing for lease unless it already holds a
	// status, which is returned instead.
	Claim(ctx context.Context, key string, lease time.Duration) (bool, Status, error)
	Complete(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const keyPrefix = "idempotency:"

//go:embed claim.lua
var claimSource string

var claimScript = redis.NewScript(claimSource)

// RedisStore keeps one string key per update.
type RedisStore struct {
	client redis.Cmdable
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Claim(ctx context.Context, key string, lease time.Duration) (bool, Status, error) {
	current, err := claimScript.Run(ctx, s.client, []string{keyPrefix + key},
		string(StatusProcessing), strconv.FormatInt(lease.Milliseconds(), 10),
	).Text()
	if err != nil {
		s.log.Error("idempotency claim failed", slog.String("key", key), slog.Any("error", err))
		return false, "", err
	}
	if current == "" {
		return true, StatusProcessing, nil
	}
	return false, Status(current), nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, string(StatusCompleted), ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
