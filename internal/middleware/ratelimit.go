package middleware

import (
	"context"
	"log/slog"
	"math"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/ratelimit"
)

// RateLimitMiddleware drops updates from chats that exceed the configured policy.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	policy  *ratelimit.Policy
	message string
	log     *slog.Logger
}

// NewRateLimitMiddleware builds the middleware. message answers a dropped
// update when the limiter cannot say how long to wait.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, policy *ratelimit.Policy, message string, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{limiter: limiter, policy: policy, message: message, log: log}
}

// Handle is a telebot middleware. The per-chat rule applies to every update,
// a command rule additionally to that slash command. Limiter failures let
// the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.policy == nil {
			return next(c)
		}

		chatID, ok := handlers.ChatID(c)
		if !ok || m.policy.Exempt(chatID) {
			return next(c)
		}

		ctx := handlers.RequestContext(c)

		if rule, ok := m.policy.PerUser(); ok {
			if decision, allowed := m.allow(ctx, ratelimit.UserKey(chatID), rule); !allowed {
				return m.reject(c, chatID, decision)
			}
		}

		if name := commandName(c.Text()); name != "" {
			if rule, ok := m.policy.Command(name); ok {
				if decision, allowed := m.allow(ctx, ratelimit.CommandKey(chatID, name), rule); !allowed {
					return m.reject(c, chatID, decision)
				}
			}
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(ctx context.Context, key string, rule ratelimit.Rule) (ratelimit.Decision, bool) {
	decision, err := m.limiter.Allow(ctx, key, rule)
	if err != nil {
		m.log.Warn("rate limiter error, letting update through", slog.String("key", key), slog.Any("error", err))
		return decision, true
	}
	return decision, decision.Allowed
}

func (m *RateLimitMiddleware) reject(c telebot.Context, chatID int64, decision ratelimit.Decision) error {
	text := m.message
	if decision.RetryAfter > 0 {
		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		text = apperrors.NewRateLimitError(seconds).UserMessage
	}

	m.log.Warn("rate limit exceeded",
		slog.Int64("chat_id", chatID),
		slog.String("backend", decision.Backend),
		slog.Duration("retry_after", decision.RetryAfter),
	)

	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text})
	}
	return c.Send(text)
}
