package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter_NegativeLimit_NeverTouchesRedis(t *testing.T) {
	mr, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)

	d, err := l.AllowFixedWindow(context.Background(), "rl:account.login:1.2.3.4:0", -5, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, mr.Keys())
}

func TestFixedWindowLimiter_ZeroWindow_DefaultsToOneMinute(t *testing.T) {
	mr, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)
	key := "rl:account.register:1.2.3.4:0"

	d, err := l.AllowFixedWindow(context.Background(), key, 5, 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestFixedWindowLimiter_ZeroWindow_NilRedisAllows(t *testing.T) {
	d, err := NewFixedWindowLimiter(nil).AllowFixedWindow(context.Background(), "rl:account.forgot-password:1.2.3.4:0", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, Decision{Allowed: true, Limit: 5, Remaining: 5}, d)
}

func TestFixedWindowLimiter_RoutesCountSeparately(t *testing.T) {
	_, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.AllowFixedWindow(ctx, "rl:account.login:1.2.3.4:0", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	blocked, err := l.AllowFixedWindow(ctx, "rl:account.login:1.2.3.4:0", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := l.AllowFixedWindow(ctx, "rl:account.confirm-email:1.2.3.4:0", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 1, other.Count)

	otherIP, err := l.AllowFixedWindow(ctx, "rl:account.login:5.6.7.8:0", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, otherIP.Allowed)
}

func TestFixedWindowLimiter_ResetAtFollowsRemainingTTL(t *testing.T) {
	mr, c := newMiniClient(t)
	l := NewFixedWindowLimiter(c)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()
	key := "rl:account.reset-password:1.2.3.4:0"

	first, err := l.AllowFixedWindow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), first.ResetAt)
	assert.Zero(t, first.RetryAfter)

	mr.FastForward(20 * time.Second)
	second, err := l.AllowFixedWindow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, 40*time.Second, second.RetryAfter)
	assert.Equal(t, now.Add(40*time.Second), second.ResetAt)
}
