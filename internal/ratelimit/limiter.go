// Package ratelimit implements fixed-window attempt counters on Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps any Redis failure. Callers treat it as an infrastructure fault.
	ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")
)

const (
	throttlePrefix = "login:throttle:"
	failurePrefix  = "login:failures:"
)

// ThrottleKey is the counter gating login attempts for an email.
func ThrottleKey(email string) string {
	return throttlePrefix + strings.ToLower(strings.TrimSpace(email))
}

// FailureKey is the counter of failed logins for an email. It is informational and never gates.
func FailureKey(email string) string {
	return failurePrefix + strings.ToLower(strings.TrimSpace(email))
}

// Limiter counts hits per key inside a fixed window using Redis INCR and EXPIRE.
type Limiter struct {
	redis redis.UniversalClient
}

// New returns a Limiter backed by the given Redis client.
func New(client redis.UniversalClient) *Limiter {
	return &Limiter{redis: client}
}

// Hit increments key and returns the count inside the current window. The first hit of a
// window starts its TTL.
func (l *Limiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// Fixed window: TTL only on the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}

// Attempts returns the current count for key; a missing key counts as zero.
func (l *Limiter) Attempts(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// TooMany reports whether key has recorded more than max hits in the current window.
func (l *Limiter) TooMany(ctx context.Context, key string, max int) (bool, error) {
	count, err := l.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	return count > int64(max), nil
}

// Reset clears key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
