package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/parfum-bot/internal/order"
)

var (
	// ErrInvalidTransition indicates that a requested step change is not allowed.
	ErrInvalidTransition = errors.New("invalid step transition")
	// ErrSessionNotFound indicates that the user has no active session.
	ErrSessionNotFound = errors.New("session not found")
)

var transitionRecorder = func(from, to Step) {}

// RegisterTransitionRecorder allows external packages to observe step transitions.
func RegisterTransitionRecorder(recorder func(from, to Step)) {
	if recorder == nil {
		transitionRecorder = func(Step, Step) {}
		return
	}

	transitionRecorder = recorder
}

// Registry maps user identities to their in-progress sessions.
type Registry interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Create(ctx context.Context, userID int64, flow Flow, mode order.Mode, step Step) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
	// Lock serializes event handling for one user and returns the release func.
	Lock(userID int64) func()
}

type registry struct {
	storage Storage
	log     *slog.Logger

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewRegistry creates a Registry on top of storage.
func NewRegistry(storage Storage, log *slog.Logger) Registry {
	if log == nil {
		log = slog.Default()
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}

	return &registry{
		storage: storage,
		log:     log,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Get returns the user's session or ErrSessionNotFound.
func (r *registry) Get(ctx context.Context, userID int64) (*Session, error) {
	return r.storage.Get(ctx, userID)
}

// Create starts a fresh session, discarding any previous one for the user.
func (r *registry) Create(ctx context.Context, userID int64, flow Flow, mode order.Mode, step Step) (*Session, error) {
	previous := Step("")
	if existing, err := r.storage.Get(ctx, userID); err == nil && existing != nil {
		previous = existing.Step
		r.log.Info("discarding previous session", slog.Int64("user_id", userID), slog.String("step", string(existing.Step)))
	}

	s := New(userID, flow, mode, step)
	if err := r.storage.Put(ctx, s); err != nil {
		r.log.Error("failed to create session", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	transitionRecorder(previous, step)
	return s, nil
}

// Save persists s after checking that its step is reachable from the stored one.
func (r *registry) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}

	stored, err := r.storage.Get(ctx, s.UserID)
	if err != nil {
		return err
	}

	if !IsTransitionAllowed(stored.Step, s.Step) {
		r.log.Warn("invalid step transition", "user_id", s.UserID, "from", stored.Step, "to", s.Step)
		return ErrInvalidTransition
	}

	s.UpdatedAt = time.Now().UTC()
	if err := r.storage.Put(ctx, s); err != nil {
		r.log.Error("failed to save session", slog.Int64("user_id", s.UserID), slog.Any("error", err))
		return err
	}

	if stored.Step != s.Step {
		transitionRecorder(stored.Step, s.Step)
	}
	return nil
}

// Clear removes the user's session.
func (r *registry) Clear(ctx context.Context, userID int64) error {
	return r.storage.Delete(ctx, userID)
}

// Count returns the number of active sessions.
func (r *registry) Count(ctx context.Context) (int, error) {
	return r.storage.Count(ctx)
}

func (r *registry) Lock(userID int64) func() {
	r.locksMu.Lock()
	mu, ok := r.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[userID] = mu
	}
	r.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
