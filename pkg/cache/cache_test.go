package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	Regime string  `json:"regime"`
	Score  float64 `json:"score"`
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheFromClient(client, "test"), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	rc, mr := newTestRedis(t)
	defer rc.Close()

	require.NoError(t, rc.Set(ctx, "regime:latest", cached{Regime: "Risk-On", Score: 0.45}, time.Minute))
	assert.True(t, mr.Exists("test:regime:latest"))

	got, err := GetTyped[cached](ctx, rc, "regime:latest")
	require.NoError(t, err)
	assert.Equal(t, "Risk-On", got.Regime)
	assert.InDelta(t, 0.45, got.Score, 1e-9)

	_, err = GetTyped[cached](ctx, rc, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	mr.FastForward(2 * time.Minute)
	_, err = GetTyped[cached](ctx, rc, "regime:latest")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheLock(t *testing.T) {
	ctx := context.Background()
	rc, _ := newTestRedis(t)
	defer rc.Close()

	ok, err := rc.TryLock(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rc.TryLock(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Unlock(ctx, "refresh"))
	ok, err = rc.TryLock(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheStructAndEviction(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", cached{Regime: "Risk-Off"}, time.Minute))
	require.NoError(t, mc.Set(ctx, "b", cached{Regime: "Transition"}, time.Minute))

	var got cached
	require.NoError(t, mc.Get(ctx, "a", &got))
	assert.Equal(t, "Risk-Off", got.Regime)

	// "b" is now least recently used
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", cached{Regime: "Risk-On"}, time.Minute))
	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &got), ErrCacheMiss)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "hello", time.Minute))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, 5*time.Millisecond))
	time.Sleep(15 * time.Millisecond)

	var n int
	assert.ErrorIs(t, mc.Get(ctx, "k", &n), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithLockSkipsWhenHeld(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	called := false
	ran, err := WithLock(ctx, mc, "job", time.Minute, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.False(t, called)

	require.NoError(t, mc.Unlock(ctx, "job"))
	ran, err = WithLock(ctx, mc, "job", time.Minute, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, called)

	held, err := mc.Exists(ctx, "lock:job")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLayeredCacheReadsThroughRedis(t *testing.T) {
	ctx := context.Background()
	rc, mr := newTestRedis(t)
	lc := NewLayeredCache(rc, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "regime", cached{Regime: "Risk-On", Score: 0.5}, time.Hour))

	// L1 still serves after Redis loses the key
	mr.Del("test:regime")
	var got cached
	require.NoError(t, lc.Get(ctx, "regime", &got))
	assert.Equal(t, "Risk-On", got.Regime)

	// a value only in Redis is promoted into L1
	require.NoError(t, rc.Set(ctx, "other", cached{Regime: "Risk-Off"}, time.Hour))
	require.NoError(t, lc.Get(ctx, "other", &got))
	assert.Equal(t, "Risk-Off", got.Regime)
	mr.Del("test:other")
	require.NoError(t, lc.Get(ctx, "other", &got))
	assert.Equal(t, "Risk-Off", got.Regime)

	require.NoError(t, lc.Delete(ctx, "other"))
	assert.ErrorIs(t, lc.Get(ctx, "other", &got), ErrCacheMiss)
}
