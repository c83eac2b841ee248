package middleware

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	"github.com/Proton-105/parfum-bot/internal/idempotency"
)

// Idempotency drops updates Telegram redelivers while the first delivery is
// still running or after it succeeded. A nil guard disables the check.
func Idempotency(guard idempotency.Guard, log *slog.Logger) handlers.Middleware {
	if guard == nil {
		return func(next handlers.Handler) handlers.Handler { return next }
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			err := guard.Once(handlers.RequestContext(c), key, func(context.Context) error {
				return next(c)
			})
			switch {
			case errors.Is(err, idempotency.ErrDuplicate):
				log.Debug("redelivered update skipped", slog.String("key", key))
				return nil
			case errors.Is(err, idempotency.ErrInProgress):
				log.Debug("redelivered update still running", slog.String("key", key))
				return nil
			}
			return err
		}
	}
}

func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if cb := c.Callback(); cb != nil {
		if cb.ID == "" {
			return ""
		}
		return idempotency.CallbackKey(cb.ID)
	}
	if msg := c.Message(); msg != nil && msg.ID != 0 && msg.Chat != nil {
		return idempotency.MessageKey(msg.Chat.ID, msg.ID)
	}
	return ""
}
