package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb), mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "login:throttle:user@example.com", ThrottleKey(" User@Example.com "))
	assert.Equal(t, "login:failures:user@example.com", FailureKey("USER@example.com"))
}

func TestHit_CountsAndSetsTTLOnce(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()
	key := ThrottleKey("a@example.com")

	n, err := l.Hit(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute)
	n, err = l.Hit(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 4*time.Minute, mr.TTL(key), "second hit must not extend the window")
}

func TestHit_SixthAttemptExceedsFive(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()
	key := ThrottleKey("a@example.com")

	for i := 1; i <= 5; i++ {
		n, err := l.Hit(ctx, key, 5*time.Minute)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, int64(5))
	}
	n, err := l.Hit(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	tooMany, err := l.TooMany(ctx, key, 5)
	require.NoError(t, err)
	assert.True(t, tooMany)
}

func TestWindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()
	key := ThrottleKey("a@example.com")
	for i := 0; i < 6; i++ {
		_, err := l.Hit(ctx, key, 5*time.Minute)
		require.NoError(t, err)
	}
	mr.FastForward(5*time.Minute + time.Second)

	got, err := l.Attempts(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, got)

	n, err := l.Hit(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAttemptsAndReset(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()
	key := FailureKey("b@example.com")

	got, err := l.Attempts(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, _ = l.Hit(ctx, key, time.Minute)
	_, _ = l.Hit(ctx, key, time.Minute)
	got, err = l.Attempts(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	require.NoError(t, l.Reset(ctx, key))
	got, err = l.Attempts(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()
	_, err := l.Hit(context.Background(), "k", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedisUnavailable))
}
