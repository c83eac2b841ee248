// Package handlers adapts telebot updates to conversation events.
package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/conversation"
	"github.com/Proton-105/parfum-bot/pkg/logger"
)

// Handler processes a single update.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Conversation is the state machine behind every handler.
type Conversation interface {
	Handle(ctx context.Context, ev conversation.Event) ([]conversation.Prompt, error)
}

// CorrelationKey is the telebot context slot holding the update's correlation id.
const CorrelationKey = "correlation_id"

// RequestContext returns a context carrying the correlation id assigned to the update.
func RequestContext(c telebot.Context) context.Context {
	ctx := context.Background()
	if c == nil {
		return ctx
	}
	if id, ok := c.Get(CorrelationKey).(string); ok && id != "" {
		return logger.WithCorrelationID(ctx, id)
	}
	return ctx
}

// ChatID identifies the conversation partner. Group chats share one session,
// so the chat id is preferred over the sender id.
func ChatID(c telebot.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID, true
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID, true
	}
	return 0, false
}
