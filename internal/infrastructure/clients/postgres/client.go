package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/retry"
)

const pingTimeout = 5 * time.Second

// Client is a PostgreSQL lot store connection pool
type Client struct {
	db *sql.DB
}

// NewClient opens the pool described by cfg and blocks until the server
// answers a ping or the startup retry policy gives up.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	configurePool(db, cfg)

	c := &Client{db: db}
	if err := retry.Startup("postgres").Do(ctx, c.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres at %s:%d not reachable: %w", cfg.Host, cfg.Port, err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Int("max_open_conns", cfg.MaxOpenConns).Msg("connected to PostgreSQL")
	return c, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// Ping checks the server within a short timeout
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

// DB returns the pool
func (c *Client) DB() *sql.DB { return c.db }

// Dialect is the goqu dialect name
func (c *Client) Dialect() string { return "postgres" }

// Close releases the pool
func (c *Client) Close() error { return c.db.Close() }
