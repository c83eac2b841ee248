package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log, closer := newWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	defer closer.Close()

	log.Debug("ledger submit",
		slog.String("bot_token", "123:abc"),
		slog.String("no_hp", "08123456789"),
		slog.String("nama", "Budi"),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "***", record["bot_token"])
	assert.Equal(t, "********789", record["no_hp"])
	assert.Equal(t, "Budi", record["nama"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _ := newWithWriter(Config{Level: "warn"}, &buf)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNew_FileOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "bot.log")
	log, closer := newWithWriter(Config{File: path}, &buf)

	log.Info("rotated")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), "rotated")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestMaskTail(t *testing.T) {
	assert.Equal(t, "**", maskTail("ab"))
	assert.Equal(t, "***def", maskTail("abcdef"))
}

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil))).
		With(slog.String("bot_token", "123:abc"))

	log.Info("order",
		slog.String("no_hp", "08123456789"),
		slog.Group("customer", slog.String("alamat", "Jl. Mawar 12")),
		slog.String("item", "pink"),
	)

	out := buf.String()
	assert.Contains(t, out, "bot_token=***")
	assert.Contains(t, out, "no_hp=********789")
	assert.Contains(t, out, `customer.alamat="********* 12"`)
	assert.Contains(t, out, "item=pink")
	assert.NotContains(t, out, "Mawar")
}

func TestRuleFor(t *testing.T) {
	tests := []struct {
		key    string
		masked bool
	}{
		{key: "token", masked: true},
		{key: "BOT_TOKEN", masked: true},
		{key: "sentry_dsn", masked: true},
		{key: "customer_no_hp", masked: true},
		{key: "tokens", masked: false},
		{key: "item", masked: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.masked, ruleFor(tt.key) != nil, tt.key)
	}
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background(), "req-1")
	assert.Equal(t, "req-1", CorrelationIDFromContext(ctx))

	generated := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(generated))
}

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
