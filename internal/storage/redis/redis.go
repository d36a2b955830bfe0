// Package redis implements the session storage ports on Redis. Snapshots
// are plain keys with a TTL; the Locker uses redislock so replicas behind a
// load balancer serialise writes to the same cart.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/egannguyen/jewellery-storefront/internal/storage"
)

const keyPrefix = "storefront:"

// Connect creates a client and pings it.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	slog.Info("Connected to redis", "addr", addr)
	return rdb, nil
}

type store struct {
	rdb *goredis.Client
}

// NewStore wraps a Redis client as a storage.Store.
func NewStore(rdb *goredis.Client) storage.Store {
	return &store{rdb: rdb}
}

func (s *store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *store) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

type locker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewLocker creates a storage.Locker backed by redislock. ttl bounds how long
// a crashed holder can block a session.
func NewLocker(rdb *goredis.Client, ttl time.Duration) storage.Locker {
	return &locker{client: redislock.New(rdb), ttl: ttl}
}

func (l *locker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, keyPrefix+"lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 200),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", storage.ErrLockNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock for %s: %w", key, err)
	}
	return func() {
		// Background context: the request may already be cancelled.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Error("Failed to release session lock", "key", key, "err", err)
		}
	}, nil
}
