package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/parfum-bot/pkg/config"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, Rule) (Decision, error) {
	return Decision{}, errors.New("connection refused")
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	rule := Rule{Limit: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, UserKey(1), rule)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		now = now.Add(10 * time.Second)
	}

	decision, err := limiter.Allow(ctx, UserKey(1), rule)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 30*time.Second, decision.RetryAfter)

	now = now.Add(31 * time.Second)
	decision, _ = limiter.Allow(ctx, UserKey(1), rule)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RetryAfter)

	decision, _ = limiter.Allow(ctx, UserKey(2), rule)
	assert.True(t, decision.Allowed, "keys are independent")
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	rule := Rule{Limit: 5, Window: time.Minute}

	_, _ = limiter.Allow(context.Background(), "old", rule)
	now = now.Add(10 * time.Minute)
	_, _ = limiter.Allow(context.Background(), "fresh", rule)

	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.Zero(t, limiter.Cleanup(0))
}

func TestFailoverLimiter_HalvesLimitOnFallback(t *testing.T) {
	limiter := NewFailoverLimiter(brokenLimiter{}, NewMemoryLimiter(testLogger()), testLogger())
	rule := Rule{Limit: 4, Window: time.Minute}

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(context.Background(), UserKey(1), rule)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, BackendMemory, decision.Backend)
	}

	decision, err := limiter.Allow(context.Background(), UserKey(1), rule)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestFailoverLimiter_PrefersPrimary(t *testing.T) {
	client, _ := setupTestRedis(t)
	fallback := NewMemoryLimiter(testLogger())
	limiter := NewFailoverLimiter(NewRedisLimiter(client, testLogger()), fallback, testLogger())
	rule := Rule{Limit: 1, Window: time.Minute}

	first, err := limiter.Allow(context.Background(), UserKey(1), rule)
	require.NoError(t, err)
	second, err := limiter.Allow(context.Background(), UserKey(1), rule)
	require.NoError(t, err)

	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.Equal(t, BackendRedis, second.Backend)
	assert.Zero(t, fallback.Len())
}

func TestNewPolicy(t *testing.T) {
	policy, err := NewPolicy(config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 30, Window: "1m"},
		Commands: map[string]config.RateLimitRule{
			"reload": {Limit: 2, Window: "30s"},
			"help":   {Limit: 0, Window: "1m"},
		},
		Whitelist: []int64{42},
	})
	require.NoError(t, err)

	rule, ok := policy.PerUser()
	require.True(t, ok)
	assert.Equal(t, Rule{Limit: 30, Window: time.Minute}, rule)

	rule, ok = policy.Command("reload")
	require.True(t, ok)
	assert.Equal(t, Rule{Limit: 2, Window: 30 * time.Second}, rule)

	_, ok = policy.Command("help")
	assert.False(t, ok, "zero limit disables the rule")
	_, ok = policy.Command("cari")
	assert.False(t, ok)

	assert.True(t, policy.Exempt(42))
	assert.False(t, policy.Exempt(7))
}

func TestNewPolicy_RejectsBadWindow(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RateLimitConfig
	}{
		{
			name: "per user",
			cfg:  config.RateLimitConfig{PerUser: config.RateLimitRule{Limit: 1, Window: "soon"}},
		},
		{
			name: "command",
			cfg: config.RateLimitConfig{Commands: map[string]config.RateLimitRule{
				"reload": {Limit: 1, Window: "-1m"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:-100", UserKey(-100))
	assert.Equal(t, "user:5:cmd:reload", CommandKey(5, "reload"))
}
