package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface. Values are JSON encoded.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// GetTyped reads key into a new T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	return v, err
}

// WithLock runs fn while holding key. It returns false without calling fn
// when another holder owns the lock.
func WithLock(ctx context.Context, c Service, key string, ttl time.Duration, fn func() error) (bool, error) {
	ok, err := c.TryLock(ctx, key, ttl)
	if err != nil || !ok {
		return false, err
	}
	defer func() { _ = c.Unlock(context.WithoutCancel(ctx), key) }()
	return true, fn()
}
