package errors

import (
	"context"
	"errors"
	"time"
)

// Backoff is an exponential retry schedule.
type Backoff struct {
	// Retries is the number of extra attempts after the first.
	Retries    int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoff allows three attempts with about 600ms of waiting in total.
var DefaultBackoff = Backoff{
	Retries:    2,
	Initial:    200 * time.Millisecond,
	Max:        2 * time.Second,
	Multiplier: 2,
}

// WithRetry runs fn under DefaultBackoff.
func WithRetry(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or the
// schedule is spent. A cancelled ctx stops the wait and returns the last error.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(err, ctxErr)
		}

		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.Retries {
			return err
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// Delay is the wait after the given zero-based failed attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.Initial
	for i := 0; i < attempt && delay < b.Max; i++ {
		delay = time.Duration(float64(delay) * b.Multiplier)
	}
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Retryable
}
