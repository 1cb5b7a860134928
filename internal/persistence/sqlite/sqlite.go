// Package sqlite persists the portal's only durable state: the serialized
// current-identity record that survives process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Storage wraps the SQLite database handle.
type Storage struct {
	db *sql.DB
}

// Open connects to the SQLite database identified by the DSN.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The driver serializes access; a single connection avoids table locks
	// from concurrent writers.
	db.SetMaxOpenConns(1)
	return &Storage{db: db}, nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS identity_snapshot (
			slot TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle to repositories in this package.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
