package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Client is a SQLite database used as a single-file lot store
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens the database at path with WAL journaling and foreign keys.
// ":memory:" opens a private in-memory database.
func NewClient(ctx context.Context, path string) (*Client, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// one writer at a time; a single connection also keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	log.Info().Str("path", path).Msg("connected to SQLite")
	return &Client{db: db, path: path}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect is the goqu dialect for this store
func (c *Client) Dialect() string {
	return "sqlite3"
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}
