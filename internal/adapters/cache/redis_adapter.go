package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

// RedisAdapter is a CacheProvider backed by Redis. Keys are namespaced with
// prefix so several deployments can share one server.
type RedisAdapter struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisAdapter creates a Redis cache adapter
func NewRedisAdapter(rdb redis.Cmdable, prefix string) *RedisAdapter {
	return &RedisAdapter{rdb: rdb, prefix: prefix}
}

func (a *RedisAdapter) key(k string) string { return a.prefix + k }

func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := a.rdb.Get(ctx, a.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value for ttlSeconds. Zero or less keeps it without expiry.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	if err := a.rdb.Set(ctx, a.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Exists(ctx, a.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n == 1, nil
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)
