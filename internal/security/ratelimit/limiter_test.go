package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/reliability/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "third request within window")

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "window slid past old requests")
}

func TestLimiterEmptyKey(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	defer l.Stop()

	ok, err := l.Allow(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.expires[key] = ttl
	return nil
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	store := newFakeCounter()
	l := NewRedisLimiter(store, "auth", 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, store.expires, 1)
	for _, ttl := range store.expires {
		assert.Equal(t, time.Minute, ttl)
	}

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}

func TestRedisLimiterStoreError(t *testing.T) {
	store := newFakeCounter()
	store.err = errors.New("connection refused")
	l := NewRedisLimiter(store, "auth", 2, time.Minute)

	ok, err := l.Allow(context.Background(), "ip")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisLimiterBreakerFallsBack(t *testing.T) {
	store := newFakeCounter()
	store.err = errors.New("connection refused")
	breaker := circuitbreaker.NewCircuitBreaker(2, 1, time.Minute)
	local := NewLimiter(1, time.Minute)
	defer local.Stop()

	l := NewRedisLimiter(store, "auth", 5, time.Minute).WithBreaker(breaker, local)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok, "fallback answers when redis fails")

	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok, "fallback enforces its own limit")
	assert.Equal(t, circuitbreaker.StateOpen, breaker.GetState())

	store.err = nil
	ok, err = l.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, store.counts, "open breaker keeps redis out of the path")
}

func TestRedisLimiterBreakerWithoutFallback(t *testing.T) {
	store := newFakeCounter()
	store.err = errors.New("connection refused")
	l := NewRedisLimiter(store, "auth", 5, time.Minute).
		WithBreaker(circuitbreaker.NewCircuitBreaker(1, 1, time.Minute), nil)

	_, err := l.Allow(context.Background(), "ip")
	assert.ErrorContains(t, err, "connection refused")

	_, err = l.Allow(context.Background(), "ip")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
