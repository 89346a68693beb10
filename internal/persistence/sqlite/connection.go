// Package sqlite implements the persistence repositories on an embedded
// SQLite database. Multi-row mutations run inside single transactions so
// callers observe them all-or-nothing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/meeting-coordinator/internal/persistence"
	_ "modernc.org/sqlite"
)

// DB wraps the shared database handle used by every repository.
type DB struct {
	sql *sql.DB
}

// Open connects to the SQLite database at the given DSN and enables
// foreign key enforcement. The write connection count is pinned to one;
// SQLite serializes writers anyway and a single connection avoids
// SQLITE_BUSY churn under concurrent batched writes.
func Open(dsn string) (*DB, error) {
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	handle.SetMaxOpenConns(1)

	if _, err := handle.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{sql: handle}, nil
}

// Close releases the underlying database handle.
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// Ping verifies the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into persistence sentinels. The
// modernc driver exposes constraint failures only through error text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(text, "FOREIGN KEY constraint failed"):
		return persistence.ErrForeignKeyViolation
	case strings.Contains(text, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	}
	return err
}
