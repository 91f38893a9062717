package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

// Supported goqu dialects
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const (
	lotsTable     = "parking_lots"
	feedbackTable = "feedback"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SQLStore is a connected SQL database and the dialect its queries are built in.
// Both the PostgreSQL and SQLite clients satisfy it.
type SQLStore interface {
	DB() *sql.DB
	Dialect() string
}

// store bundles the query builder and the scanner for one database
type store struct {
	qb *goqu.Database
	db *sqlx.DB
}

func newStore(s SQLStore) store {
	return store{
		qb: goqu.New(s.Dialect(), s.DB()),
		db: sqlx.NewDb(s.DB(), driverName(s.Dialect())),
	}
}

func driverName(dialect string) string {
	if dialect == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

// Migrate creates the lot and feedback tables if they do not exist
func Migrate(ctx context.Context, s SQLStore) error {
	file := "schema/postgres.sql"
	if s.Dialect() == DialectSQLite {
		file = "schema/sqlite.sql"
	}

	ddl, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(ddl), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
