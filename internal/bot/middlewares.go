package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	errors "github.com/Proton-105/parfum-bot/internal/errors"
)

// CorrelationMiddleware assigns every update a correlation id used by logs and Sentry.
func CorrelationMiddleware() handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if id, _ := c.Get(handlers.CorrelationKey).(string); id == "" {
				c.Set(handlers.CorrelationKey, uuid.NewString())
			}
			return next(c)
		}
	}
}

// RecoveryMiddleware turns a handler panic into an internal error reply.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, fallback string) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error("panic recovered in handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				reply(c, log, errHandler, fallback, errors.NewInternalError(fmt.Errorf("panic: %v", r)))
				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware reports a failed update and replies with the
// operator-facing text. No error reaches telebot.
func ErrorHandlingMiddleware(errHandler *errors.Handler, fallback string) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if err := next(c); err != nil {
				reply(c, nil, errHandler, fallback, err)
			}
			return nil
		}
	}
}

func reply(c telebot.Context, log *slog.Logger, errHandler *errors.Handler, fallback string, err error) {
	text := fallback
	if errHandler != nil {
		if msg, _ := errHandler.Handle(handlers.RequestContext(c), err); msg != "" {
			text = msg
		}
	}
	if sendErr := c.Send(text); sendErr != nil && log != nil {
		log.Error("failed to send error reply", slog.Any("error", sendErr))
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			chatID, _ := handlers.ChatID(c)

			kind, _ := classify(c)

			ctx := handlers.RequestContext(c)
			correlationID, _ := c.Get(handlers.CorrelationKey).(string)
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("chat_id", chatID),
				slog.String("kind", string(kind)),
				slog.String("correlation_id", correlationID),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}
