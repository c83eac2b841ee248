// Package session keeps per-user conversation state for the bot.
package session

import "context"

// Storage defines the persistence contract for sessions.
type Storage interface {
	// Get returns the session for the specified user.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Put saves the provided session for its user.
	Put(ctx context.Context, s *Session) error
	// Delete removes the session for the specified user.
	Delete(ctx context.Context, userID int64) error
	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
}
