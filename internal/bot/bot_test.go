package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	"github.com/Proton-105/parfum-bot/internal/conversation"
	errors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
)

type fakeContext struct {
	telebot.Context
	chat     *telebot.Chat
	text     string
	callback *telebot.Callback
	store    map[string]interface{}
	sent     []string
}

func (f *fakeContext) Chat() *telebot.Chat                        { return f.chat }
func (f *fakeContext) Sender() *telebot.User                      { return nil }
func (f *fakeContext) Text() string                               { return f.text }
func (f *fakeContext) Callback() *telebot.Callback                { return f.callback }
func (f *fakeContext) Message() *telebot.Message                  { return nil }
func (f *fakeContext) Respond(...*telebot.CallbackResponse) error { return nil }
func (f *fakeContext) Get(key string) interface{}                 { return f.store[key] }

func (f *fakeContext) Set(key string, v interface{}) {
	if f.store == nil {
		f.store = map[string]interface{}{}
	}
	f.store[key] = v
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what.(string))
	return nil
}

type recordingConversation struct {
	events []conversation.Event
	err    error
	panic  bool
}

func (r *recordingConversation) Handle(_ context.Context, ev conversation.Event) ([]conversation.Prompt, error) {
	if r.panic {
		panic("boom")
	}
	r.events = append(r.events, ev)
	if r.err != nil {
		return nil, r.err
	}
	return []conversation.Prompt{{UserID: ev.UserID, Text: "ok"}}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot(t *testing.T, conv handlers.Conversation) *Bot {
	t.Helper()
	b, err := New(Settings{Token: "123:test", Offline: true}, Deps{
		Conversation: conv,
		ErrHandler:   errors.NewHandler(discard(), false),
		Translator:   i18n.MustLoad(i18n.DefaultLang).Translator(""),
		Logger:       discard(),
	})
	require.NoError(t, err)
	return b
}

func TestNew_RequiresConversation(t *testing.T) {
	_, err := New(Settings{Token: "123:test", Offline: true}, Deps{})
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	cases := []struct {
		name string
		ctx  *fakeContext
		want conversation.Event
	}{
		{
			name: "start command",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 1}, text: "/start"},
			want: conversation.CommandEvent(1, conversation.CommandStart),
		},
		{
			name: "fast sale with bot suffix",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 1}, text: "/jual_cepat@parfum_bot"},
			want: conversation.CommandEvent(1, conversation.CommandFastSale),
		},
		{
			name: "cancel alias",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 1}, text: "/cancel"},
			want: conversation.CommandEvent(1, conversation.CommandCancel),
		},
		{
			name: "unknown command falls back to help",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 1}, text: "/profile"},
			want: conversation.CommandEvent(1, conversation.CommandHelp),
		},
		{
			name: "button",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 2}, callback: &telebot.Callback{Data: "cat:Botol"}},
			want: conversation.ButtonEvent(2, "cat:Botol"),
		},
		{
			name: "text",
			ctx:  &fakeContext{chat: &telebot.Chat{ID: 3}, text: "Budi"},
			want: conversation.TextEvent(3, "Budi"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := &recordingConversation{}
			b := newTestBot(t, conv)

			require.NoError(t, b.Router().Route(tc.ctx))
			require.Len(t, conv.events, 1)
			assert.Equal(t, tc.want, conv.events[0])
			assert.Equal(t, []string{"ok"}, tc.ctx.sent)
			assert.NotEmpty(t, tc.ctx.store[handlers.CorrelationKey])
		})
	}
}

func TestRoute_ErrorBecomesUserMessage(t *testing.T) {
	conv := &recordingConversation{err: errors.NewValidationError("Qty harus angka lebih dari 0.")}
	b := newTestBot(t, conv)

	c := &fakeContext{chat: &telebot.Chat{ID: 1}, text: "abc"}
	require.NoError(t, b.Router().Route(c))
	assert.Equal(t, []string{"❗ Qty harus angka lebih dari 0."}, c.sent)
}

func TestRoute_PanicIsRecovered(t *testing.T) {
	b := newTestBot(t, &recordingConversation{panic: true})

	c := &fakeContext{chat: &telebot.Chat{ID: 1}, text: "x"}
	require.NoError(t, b.Router().Route(c))
	require.Len(t, c.sent, 1)
	assert.NotEmpty(t, c.sent[0])
}

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "/start", NormalizeCommand("/Start@parfum_bot extra"))
	assert.Equal(t, "/cari", NormalizeCommand("  /cari pink"))
	assert.Empty(t, NormalizeCommand("Budi"))
	assert.Empty(t, NormalizeCommand(""))
}

func TestMenuCommands(t *testing.T) {
	tr := i18n.MustLoad(i18n.DefaultLang).Translator("")
	cmds := MenuCommands(tr)

	require.Len(t, cmds, len(menuOrder))
	assert.Equal(t, "start", cmds[0].Text)
	assert.Equal(t, "Menu utama", cmds[0].Description)
	for _, c := range cmds {
		assert.NotContains(t, c.Description, "commands.", c.Text)
	}
}
