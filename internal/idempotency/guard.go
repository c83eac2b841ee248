// Package idempotency makes sure a Telegram update is processed at most once,
// even when the API redelivers it after a slow response.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrDuplicate means the update was already handled successfully.
	ErrDuplicate = errors.New("update already processed")
	// ErrInProgress means another delivery of the update is being handled.
	ErrInProgress = errors.New("update is being processed")
)

// DefaultLease bounds how long a crashed handler blocks redelivery.
const DefaultLease = 2 * time.Minute

// Guard runs fn at most once per key.
type Guard interface {
	Once(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Manager is the Store-backed Guard. A key is claimed for the lease while fn
// runs, marked completed for ttl on success, and released on failure so the
// next delivery can try again.
type Manager struct {
	store Store
	lease time.Duration
	ttl   time.Duration
	log   *slog.Logger
}

var _ Guard = (*Manager)(nil)

func NewManager(store Store, ttl time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Manager{store: store, lease: DefaultLease, ttl: ttl, log: log}
}

func (m *Manager) Once(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("idempotency: nil operation")
	}

	claimed, status, err := m.store.Claim(ctx, key, m.lease)
	if err != nil {
		return err
	}
	if !claimed {
		if status == StatusCompleted {
			return ErrDuplicate
		}
		return ErrInProgress
	}

	// bookkeeping must outlive a cancelled update context
	bg := context.WithoutCancel(ctx)

	if err := fn(ctx); err != nil {
		if relErr := m.store.Release(bg, key); relErr != nil {
			m.log.Warn("idempotency key not released", slog.String("key", key), slog.Any("error", relErr))
		}
		return err
	}

	if err := m.store.Complete(bg, key, m.ttl); err != nil {
		m.log.Warn("idempotency key not completed", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}
