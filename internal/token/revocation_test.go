package token

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

func TestRedisRevocations(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	r := NewRedisRevocations(rdb)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "sess-1", 15*time.Minute))
	revoked, err = r.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 15*time.Minute, mr.TTL(revokedSessionPrefix+"sess-1"))

	mr.FastForward(15*time.Minute + time.Second)
	revoked, err = r.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry lapses once no access token can still be valid")

	mr.Close()
	_, err = r.IsRevoked(ctx, "sess-1")
	assert.True(t, errors.Is(err, ErrRevocationUnavailable))
}

func TestMemoryRevocations(t *testing.T) {
	m := NewMemoryRevocations()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Revoke(ctx, "s", time.Minute))
	ok, _ := m.IsRevoked(ctx, "s")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = m.IsRevoked(ctx, "s")
	assert.False(t, ok)
}
