package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; each entry runs at most once. Append
// only — never edit an applied entry.
var migrations = []string{
	`CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE conversations (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		created_by TEXT NOT NULL REFERENCES users(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE conversation_members (
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		user_id         TEXT NOT NULL REFERENCES users(id),
		role            TEXT NOT NULL DEFAULT 'none',
		joined_at       TEXT NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	)`,
	`CREATE TABLE schedule_entries (
		owner_id         TEXT NOT NULL REFERENCES users(id),
		meeting_id       TEXT NOT NULL,
		conversation_id  TEXT NOT NULL REFERENCES conversations(id),
		title            TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		participant_ids  TEXT NOT NULL,
		organizer_id     TEXT NOT NULL,
		status           TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'declined', 'done')),
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		PRIMARY KEY (owner_id, meeting_id)
	)`,
	`CREATE INDEX idx_schedule_entries_owner_conversation
		ON schedule_entries (owner_id, conversation_id, start_time)`,
	`CREATE INDEX idx_schedule_entries_meeting ON schedule_entries (meeting_id)`,
	`CREATE TABLE meeting_keys (
		organizer_id    TEXT NOT NULL,
		idempotency_key TEXT NOT NULL,
		meeting_id      TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		PRIMARY KEY (organizer_id, idempotency_key)
	)`,
}

// Migrate creates the schema version table and applies any migrations not
// yet recorded, each inside its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err := db.sql.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("apply migration %d: %w", version, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))",
				version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
