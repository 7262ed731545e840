package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/reliability/circuitbreaker"
)

// ErrStoreUnavailable is returned while the breaker is open and no fallback is set
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Counter is the subset of a shared key-value store the Redis limiter needs
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisLimiter is a fixed-window limiter shared by every API instance
type RedisLimiter struct {
	store   Counter
	prefix  string
	maxReqs int64
	window  time.Duration
	now     func() time.Time

	breaker  *circuitbreaker.CircuitBreaker
	fallback RateLimiter
}

func NewRedisLimiter(store Counter, prefix string, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		store:   store,
		prefix:  prefix,
		maxReqs: int64(maxRequests),
		window:  window,
		now:     time.Now,
	}
}

// WithBreaker stops calling Redis once it keeps failing. While the breaker is
// open, fallback (typically an in-process Limiter) answers instead.
func (l *RedisLimiter) WithBreaker(breaker *circuitbreaker.CircuitBreaker, fallback RateLimiter) *RedisLimiter {
	l.breaker = breaker
	l.fallback = fallback
	return l
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	if l.breaker == nil {
		return l.allow(ctx, key)
	}

	if !l.breaker.AllowRequest() {
		return l.degraded(ctx, key, ErrStoreUnavailable)
	}
	ok, err := l.allow(ctx, key)
	if err != nil {
		l.breaker.RecordFailure()
		return l.degraded(ctx, key, err)
	}
	l.breaker.RecordSuccess()
	return ok, nil
}

func (l *RedisLimiter) degraded(ctx context.Context, key string, cause error) (bool, error) {
	if l.fallback == nil {
		return false, cause
	}
	return l.fallback.Allow(ctx, key)
}

func (l *RedisLimiter) allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	n, err := l.store.Incr(ctx, k)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.store.Expire(ctx, k, l.window); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= l.maxReqs, nil
}
