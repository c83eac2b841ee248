package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter is the in-process Limiter. It backs the bot when Redis is
// disabled and answers for FailoverLimiter when Redis fails.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
		log:     log,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	admitted := trimBefore(m.windows[key], now.Add(-rule.Window))
	decision := Decision{Backend: BackendMemory}

	if len(admitted) < rule.Limit {
		admitted = append(admitted, now)
		decision.Allowed = true
		decision.Remaining = rule.Limit - len(admitted)
	} else if len(admitted) > 0 {
		decision.RetryAfter = retryAfter(admitted[0], rule.Window, now)
	} else {
		decision.RetryAfter = rule.Window
	}

	if len(admitted) == 0 {
		delete(m.windows, key)
	} else {
		m.windows[key] = admitted
	}

	return decision, nil
}

// Cleanup drops keys whose newest admission is older than maxAge and reports
// how many went.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, admitted := range m.windows {
		if len(admitted) == 0 || admitted[len(admitted)-1].Before(cutoff) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// trimBefore drops admissions at or before start, reusing the backing array.
func trimBefore(admitted []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(admitted) && !admitted[i].After(start) {
		i++
	}
	return append(admitted[:0], admitted[i:]...)
}
