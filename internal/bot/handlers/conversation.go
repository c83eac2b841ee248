package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/keyboard"
	"github.com/Proton-105/parfum-bot/internal/conversation"
)

// NewCommandHandler feeds a slash command into the conversation.
func NewCommandHandler(conv Conversation, cmd conversation.Command, log *slog.Logger) Handler {
	return newEventHandler(conv, log, func(id int64, _ telebot.Context) conversation.Event {
		return conversation.CommandEvent(id, cmd)
	})
}

// NewTextHandler feeds free text into the conversation.
func NewTextHandler(conv Conversation, log *slog.Logger) Handler {
	return newEventHandler(conv, log, func(id int64, c telebot.Context) conversation.Event {
		return conversation.TextEvent(id, c.Text())
	})
}

// NewCallbackHandler feeds inline button presses into the conversation.
// The callback is answered first so the client stops its spinner.
func NewCallbackHandler(conv Conversation, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	events := newEventHandler(conv, log, func(id int64, c telebot.Context) conversation.Event {
		return conversation.ButtonEvent(id, c.Callback().Data)
	})

	return func(c telebot.Context) error {
		if c == nil || c.Callback() == nil {
			return nil
		}
		if err := c.Respond(); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}
		return events(c)
	}
}

func newEventHandler(conv Conversation, log *slog.Logger, build func(int64, telebot.Context) conversation.Event) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		id, ok := ChatID(c)
		if !ok {
			log.Warn("update without chat or sender ignored")
			return nil
		}

		prompts, err := conv.Handle(RequestContext(c), build(id, c))
		// prompts produced before a failure are still delivered
		if sendErr := SendPrompts(c, prompts); sendErr != nil {
			log.Error("failed to send prompts", slog.Int64("chat_id", id), slog.Any("error", sendErr))
			if err == nil {
				err = sendErr
			}
		}
		return err
	}
}

// SendPrompts delivers prompts in order, rendering choices as inline keyboards.
func SendPrompts(c telebot.Context, prompts []conversation.Prompt) error {
	for _, p := range prompts {
		markup, err := keyboard.FromChoices(p.Choices)
		if err != nil {
			return fmt.Errorf("render keyboard: %w", err)
		}

		opts := []interface{}{}
		if markup != nil {
			opts = append(opts, markup)
		}
		if err := c.Send(p.Text, opts...); err != nil {
			return err
		}
	}
	return nil
}
