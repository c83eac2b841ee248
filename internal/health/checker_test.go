package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type catalogState struct {
	live bool
	n    int
}

func (c catalogState) Live() bool { return c.live }
func (c catalogState) Len() int   { return c.n }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_Report(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewChecker(discard(), time.Second)
	checker.AddCheck("redis", NewRedisChecker(client))
	checker.AddCheck("catalog", NewCatalogChecker(catalogState{live: true, n: 120}))
	checker.AddCheck("", NewRedisChecker(client))
	checker.AddCheck("nil", nil)

	report := checker.Check(context.Background())
	assert.True(t, report.Healthy)
	assert.Equal(t, map[string]string{"redis": "OK", "catalog": "OK"}, report.Components)
	assert.Equal(t, []string{"catalog", "redis"}, checker.Names())
}

func TestChecker_Unhealthy(t *testing.T) {
	checker := NewChecker(discard(), 0)
	checker.AddCheck("catalog", NewCatalogChecker(catalogState{live: false, n: 11}))
	checker.AddCheck("ledger", CheckFunc(func(context.Context) error { return errors.New("circuit open") }))

	report := checker.Check(context.Background())
	assert.False(t, report.Healthy)
	assert.Equal(t, ErrCatalogFallback.Error(), report.Components["catalog"])
	assert.Equal(t, "circuit open", report.Components["ledger"])
}

func TestChecker_TimeoutPerComponent(t *testing.T) {
	checker := NewChecker(discard(), 20*time.Millisecond)
	checker.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	report := checker.Check(context.Background())
	require.False(t, report.Healthy)
	assert.Contains(t, report.Components["slow"], "deadline")
}

func TestRedisChecker_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	assert.Error(t, NewRedisChecker(client).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewRedisChecker(nil).HealthCheck(context.Background()), redis.ErrClosed)
}

func TestTelegramChecker(t *testing.T) {
	assert.Error(t, NewTelegramChecker(nil).HealthCheck(context.Background()))
	assert.NoError(t, NewTelegramChecker(&telebot.Bot{Me: &telebot.User{ID: 1}}).HealthCheck(context.Background()))
}
