package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Schema creates the tables the service reads and writes
const Schema = `
	CREATE TABLE IF NOT EXISTS bills (
		id            TEXT PRIMARY KEY,
		customer_name TEXT,
		amount        NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		due_date      DATE,
		lender        TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS bills_created_at_idx ON bills (created_at DESC);
`

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=billlink sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Connect opens a connection, retrying while Postgres is still starting up.
// It gives up after attempts tries or when ctx is done.
func Connect(ctx context.Context, connectionString string, attempts int, interval time.Duration) (*DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := NewDB(connectionString)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempts, lastErr)
}

// Migrate applies Schema
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
