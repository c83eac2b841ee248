package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/parfum-bot/internal/health"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_PhasesRunInOrder(t *testing.T) {
	s := NewShutdown(discard())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	s.Register("bot", record("bot"))
	s.Register("http", record("http"))
	s.NextPhase()
	s.NextPhase()
	s.Register("redis", record("redis"))
	s.Register("nil", nil)

	require.NoError(t, s.Execute(context.Background()))
	require.Len(t, order, 3)
	assert.ElementsMatch(t, []string{"bot", "http"}, order[:2])
	assert.Equal(t, "redis", order[2])
}

func TestShutdown_CollectsErrors(t *testing.T) {
	s := NewShutdown(nil)
	ran := false

	s.Register("b", func(context.Context) error { return errors.New("second") })
	s.Register("a", func(context.Context) error { return errors.New("first") })
	s.NextPhase()
	s.Register("c", func(context.Context) error { ran = true; return nil })

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, "b: second\na: first", err.Error(), "failures keep registration order")
	assert.True(t, ran)
}

func TestProbes_Readiness(t *testing.T) {
	checker := health.NewChecker(discard(), time.Second)
	checker.AddCheck("catalog", health.CheckFunc(func(context.Context) error { return health.ErrCatalogFallback }))
	redisDown := errors.New("connection refused")
	var redisErr error
	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error { return redisErr }))

	probes := NewProbes(discard(), checker, "redis")
	ctx := context.Background()

	assert.NoError(t, probes.Liveness(ctx))
	assert.NoError(t, probes.Readiness(ctx), "optional components do not fail readiness")

	redisErr = redisDown
	err := probes.Readiness(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: connection refused")

	redisErr = nil
	probes.MarkStopping()
	assert.EqualError(t, probes.Readiness(ctx), "shutting down")
}

func TestProbes_NoChecker(t *testing.T) {
	assert.NoError(t, NewProbes(nil, nil).Readiness(context.Background()))
}
