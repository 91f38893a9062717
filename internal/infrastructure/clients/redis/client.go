package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/retry"
)

// Client wraps the go-redis client used for response caching and feedback
// throttling.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient connects to Redis. Redis is optional, so it gets a shorter
// startup budget than the lot store.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	policy := retry.Startup("redis")
	policy.Budget = 20 * time.Second
	err := policy.Do(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis at %s not reachable: %w", cfg.RedisAddr(), err)
	}

	log.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.DB).Str("key_prefix", cfg.KeyPrefix).Msg("connected to Redis")
	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

// Client returns the go-redis client
func (c *Client) Client() *redis.Client { return c.rdb }

// KeyPrefix is prepended to every key this service writes
func (c *Client) KeyPrefix() string { return c.prefix }

// Close closes the connection pool
func (c *Client) Close() error { return c.rdb.Close() }
