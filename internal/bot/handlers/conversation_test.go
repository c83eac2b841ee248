package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/conversation"
	"github.com/Proton-105/parfum-bot/pkg/logger"
)

type sentMessage struct {
	text   string
	markup *telebot.ReplyMarkup
}

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context
	chat      *telebot.Chat
	sender    *telebot.User
	text      string
	callback  *telebot.Callback
	store     map[string]interface{}
	sent      []sentMessage
	responded bool
	sendErr   error
}

func (f *fakeContext) Chat() *telebot.Chat         { return f.chat }
func (f *fakeContext) Sender() *telebot.User       { return f.sender }
func (f *fakeContext) Text() string                { return f.text }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Respond(...*telebot.CallbackResponse) error {
	f.responded = true
	return nil
}

func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, v interface{}) {
	if f.store == nil {
		f.store = map[string]interface{}{}
	}
	f.store[key] = v
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	msg := sentMessage{text: what.(string)}
	for _, o := range opts {
		if m, ok := o.(*telebot.ReplyMarkup); ok {
			msg.markup = m
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

type stubConversation struct {
	events  []conversation.Event
	ctxs    []context.Context
	prompts []conversation.Prompt
	err     error
}

func (s *stubConversation) Handle(ctx context.Context, ev conversation.Event) ([]conversation.Prompt, error) {
	s.events = append(s.events, ev)
	s.ctxs = append(s.ctxs, ctx)
	return s.prompts, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTextHandler_UsesChatID(t *testing.T) {
	conv := &stubConversation{prompts: []conversation.Prompt{
		{Text: "📞 Langkah 2/8", Choices: [][]conversation.Choice{{{Label: "⏭ Lewati", Token: "skip"}}}},
	}}
	c := &fakeContext{
		chat:   &telebot.Chat{ID: -1002757263947},
		sender: &telebot.User{ID: 5425205882},
		text:   "Budi",
	}
	c.Set(CorrelationKey, "update-1")

	require.NoError(t, NewTextHandler(conv, discard())(c))

	require.Len(t, conv.events, 1)
	assert.Equal(t, conversation.TextEvent(-1002757263947, "Budi"), conv.events[0])
	assert.Equal(t, "update-1", logger.CorrelationIDFromContext(conv.ctxs[0]))

	require.Len(t, c.sent, 1)
	require.NotNil(t, c.sent[0].markup)
	assert.Equal(t, "skip", c.sent[0].markup.InlineKeyboard[0][0].Data)
}

func TestCallbackHandler_RespondsAndForwardsToken(t *testing.T) {
	conv := &stubConversation{prompts: []conversation.Prompt{{Text: "🔢 Langkah 6/8"}}}
	c := &fakeContext{
		sender:   &telebot.User{ID: 7},
		callback: &telebot.Callback{Data: "var:25ml"},
	}

	require.NoError(t, NewCallbackHandler(conv, discard())(c))

	assert.True(t, c.responded)
	assert.Equal(t, conversation.ButtonEvent(7, "var:25ml"), conv.events[0])
	require.Len(t, c.sent, 1)
	assert.Nil(t, c.sent[0].markup)
}

func TestCommandHandler(t *testing.T) {
	conv := &stubConversation{}
	c := &fakeContext{chat: &telebot.Chat{ID: 5}}

	require.NoError(t, NewCommandHandler(conv, conversation.CommandReload, discard())(c))
	assert.Equal(t, conversation.CommandEvent(5, conversation.CommandReload), conv.events[0])
}

func TestEventHandler_ReturnsConversationError(t *testing.T) {
	boom := errors.New("boom")
	conv := &stubConversation{err: boom, prompts: []conversation.Prompt{{Text: "partial"}}}
	c := &fakeContext{chat: &telebot.Chat{ID: 5}, text: "x"}

	err := NewTextHandler(conv, discard())(c)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.sent, 1)
}

func TestEventHandler_NoChat(t *testing.T) {
	conv := &stubConversation{}
	require.NoError(t, NewTextHandler(conv, discard())(&fakeContext{}))
	assert.Empty(t, conv.events)
}

func TestSendPrompts_RejectsOversizedToken(t *testing.T) {
	c := &fakeContext{}
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	err := SendPrompts(c, []conversation.Prompt{{
		Text:    "hasil",
		Choices: [][]conversation.Choice{{{Label: "x", Token: string(long)}}},
	}})
	assert.Error(t, err)
	assert.Empty(t, c.sent)
}

func TestRequestContext(t *testing.T) {
	assert.Empty(t, logger.CorrelationIDFromContext(RequestContext(nil)))
	assert.Empty(t, logger.CorrelationIDFromContext(RequestContext(&fakeContext{})))
}
