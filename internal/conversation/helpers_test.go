package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Proton-105/parfum-bot/internal/auth"
	"github.com/Proton-105/parfum-bot/internal/catalog"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

const (
	operatorID int64 = 100
	strangerID int64 = 999
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type recordingSink struct {
	mu       sync.Mutex
	payloads []ledger.Payload
	err      error
}

func (s *recordingSink) Submit(_ context.Context, p ledger.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

func (s *recordingSink) last(t *testing.T) ledger.Payload {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.payloads, "no payload submitted")
	return s.payloads[len(s.payloads)-1]
}

type fixture struct {
	machine  *Machine
	sessions session.Registry
	cache    *catalog.Cache
	sink     *recordingSink
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var perfumes = []catalog.Entry{
	{Name: "Pink Chiffon", Category: order.CategoryBibit},
	{Name: "Guess Pink", Category: order.CategoryBibit},
	{Name: "Avril Lavigne", Category: order.CategoryBibit},
}

func newFixture(t *testing.T, entries ...catalog.Entry) *fixture {
	t.Helper()

	source := catalog.SourceFunc(func(context.Context) ([]catalog.Entry, error) {
		return entries, nil
	})
	return newFixtureWithSource(t, source)
}

func newFixtureWithSource(t *testing.T, source catalog.Source) *fixture {
	t.Helper()

	log := testLogger()
	cache := catalog.NewCache(source, log)
	_, _ = cache.Refresh(context.Background())

	sessions := session.NewRegistry(session.NewMemoryStorage(), log)
	sink := &recordingSink{}
	tr, err := i18n.Load("id")
	require.NoError(t, err)

	m := NewMachine(Deps{
		Sessions:   sessions,
		Catalog:    cache,
		Sink:       sink,
		Auth:       auth.NewAllowList([]int64{operatorID}),
		Translator: tr.Translator("id"),
		Logger:     log,
		PageSize:   catalog.DefaultPageSize,
		Now:        func() time.Time { return fixedNow },
	})

	return &fixture{machine: m, sessions: sessions, cache: cache, sink: sink}
}

func (f *fixture) send(t *testing.T, ev Event) []Prompt {
	t.Helper()
	prompts, err := f.machine.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.NotEmpty(t, prompts)
	for _, p := range prompts {
		require.Equal(t, ev.UserID, p.UserID)
	}
	return prompts
}

func (f *fixture) text(t *testing.T, text string) []Prompt {
	t.Helper()
	return f.send(t, TextEvent(operatorID, text))
}

func (f *fixture) press(t *testing.T, token string) []Prompt {
	t.Helper()
	return f.send(t, ButtonEvent(operatorID, token))
}

func (f *fixture) command(t *testing.T, cmd Command) []Prompt {
	t.Helper()
	return f.send(t, CommandEvent(operatorID, cmd))
}

func (f *fixture) current(t *testing.T) *session.Session {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), operatorID)
	require.NoError(t, err)
	return s
}

func (f *fixture) hasSession(userID int64) bool {
	_, err := f.sessions.Get(context.Background(), userID)
	return !errors.Is(err, session.ErrSessionNotFound)
}

// tokens flattens the choice tokens of a prompt.
func tokens(p Prompt) []string {
	var out []string
	for _, row := range p.Choices {
		for _, c := range row {
			out = append(out, c.Token)
		}
	}
	return out
}

// tokensWith returns the tokens of p that start with action.
func tokensWith(p Prompt, action string) []string {
	var out []string
	for _, tok := range tokens(p) {
		if a, _ := SplitToken(tok); a == action {
			out = append(out, tok)
		}
	}
	return out
}

func lastPrompt(prompts []Prompt) Prompt {
	return prompts[len(prompts)-1]
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.CodeOf(err), "error: %v", err)
}
