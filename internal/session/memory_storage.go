package session

import (
	"context"
	"sync"
)

// MemoryStorage keeps sessions in process memory. Values are cloned on the way
// in and out so callers never share state.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStorage returns an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the stored session or ErrSessionNotFound.
func (m *MemoryStorage) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Put stores a copy of s.
func (m *MemoryStorage) Put(_ context.Context, s *Session) error {
	if s == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.Clone()
	return nil
}

// Delete removes the session for userID.
func (m *MemoryStorage) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Count returns the number of stored sessions.
func (m *MemoryStorage) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
