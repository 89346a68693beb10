package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/meeting-coordinator/internal/persistence"
)

// SessionRepository stores authentication sessions.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a session repository backed by db.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts a session and returns the stored row.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		session.ID, session.UserID, session.Token,
		formatTime(session.ExpiresAt), formatTime(session.CreatedAt), formatTime(session.UpdatedAt))
	if err != nil {
		return persistence.Session{}, fmt.Errorf("create session: %w", mapError(err))
	}
	session.RevokedAt = nil
	return session, nil
}

// GetSession returns the session identified by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at FROM sessions WHERE token = ?",
		token)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// RevokeSession marks the session revoked and returns the updated row.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	outcome, err := r.db.sql.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ? AND revoked_at IS NULL",
		formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("revoke session: %w", mapError(err))
	}
	affected, err := outcome.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("revoke session: %w", err)
	}
	if affected == 0 {
		return persistence.Session{}, fmt.Errorf("revoke session: %w", persistence.ErrNotFound)
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", formatTime(reference))
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", mapError(err))
	}
	return nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var expires, created, updated string
	var revoked *string
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expires, &created, &updated, &revoked)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if session.ExpiresAt, err = parseTime(expires); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Session{}, err
	}
	if revoked != nil {
		t, err := parseTime(*revoked)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &t
	}
	return session, nil
}
