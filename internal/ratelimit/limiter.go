// Package ratelimit throttles operators who flood the bot with updates.
//
// Windows slide: an update is admitted while fewer than Rule.Limit admitted
// updates fall inside the trailing Rule.Window. Rejected updates are not
// recorded, so a flood does not extend its own penalty.
package ratelimit

import (
	"context"
	"strconv"
	"time"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Rule allows Limit updates per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the verdict for one update.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the wait until the oldest admitted update leaves the
	// window. Zero when Allowed.
	RetryAfter time.Duration
	Backend    string
}

// Limiter records an update under key and decides whether rule admits it.
// An error means the backend could not decide.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}

// UserKey identifies all updates from one chat.
func UserKey(chatID int64) string {
	return "user:" + strconv.FormatInt(chatID, 10)
}

// CommandKey identifies one command issued from one chat.
func CommandKey(chatID int64, command string) string {
	return UserKey(chatID) + ":cmd:" + command
}

func retryAfter(oldest time.Time, window time.Duration, now time.Time) time.Duration {
	wait := oldest.Add(window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
