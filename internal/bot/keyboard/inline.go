// Package keyboard renders conversation choices as Telegram inline keyboards.
package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/conversation"
)

// InlineButton is a single button before rendering.
type InlineButton struct {
	Text string
	Data string
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a row. Empty rows are ignored.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Len reports the number of rows.
func (b *InlineKeyboardBuilder) Len() int {
	return len(b.rows)
}

// Build renders the markup. Buttons carry raw callback data with no telebot unique
// prefix, so presses arrive through the OnCallback endpoint untouched.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	if len(b.rows) == 0 {
		return nil, nil
	}

	inline := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inline[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			if err := CheckCallback(btn.Data); err != nil {
				return nil, fmt.Errorf("button %q: %w", btn.Text, err)
			}
			inline[i][j] = telebot.InlineButton{Text: btn.Text, Data: btn.Data}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inline}, nil
}

// FromChoices converts prompt choices into inline markup. A nil markup means no keyboard.
func FromChoices(choices [][]conversation.Choice) (*telebot.ReplyMarkup, error) {
	b := NewInlineKeyboard()
	for _, row := range choices {
		buttons := make([]InlineButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, InlineButton{Text: c.Label, Data: c.Token})
		}
		b.AddRow(buttons...)
	}
	return b.Build()
}
