package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/persistence"
)

// EntryRepository stores schedule entries keyed by (owner, meeting).
type EntryRepository struct {
	db *DB
}

// NewEntryRepository creates a schedule entry repository backed by db.
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// CreateMeetingEntries writes every entry of a new meeting in a single
// transaction. When claim carries a non-empty key, the key is claimed first;
// if another create already holds it the existing meeting id is returned and
// no rows are written.
func (r *EntryRepository) CreateMeetingEntries(ctx context.Context, entries []persistence.ScheduleEntry, claim persistence.IdempotencyClaim) (persistence.CreateResult, error) {
	if len(entries) == 0 {
		return persistence.CreateResult{}, fmt.Errorf("create meeting entries: %w", persistence.ErrConstraintViolation)
	}
	meetingID := entries[0].MeetingID

	var result persistence.CreateResult
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if claim.Key != "" {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO meeting_keys (organizer_id, idempotency_key, meeting_id, created_at)
				 VALUES (?, ?, ?, ?)`,
				claim.OrganizerID, claim.Key, meetingID, formatTime(entries[0].CreatedAt))
			if err != nil {
				mapped := mapError(err)
				if !errors.Is(mapped, persistence.ErrDuplicate) {
					return fmt.Errorf("claim idempotency key: %w", mapped)
				}
				var existingID string
				err := tx.QueryRowContext(ctx,
					"SELECT meeting_id FROM meeting_keys WHERE organizer_id = ? AND idempotency_key = ?",
					claim.OrganizerID, claim.Key).Scan(&existingID)
				if err != nil {
					return fmt.Errorf("resolve idempotency key: %w", mapError(err))
				}
				result = persistence.CreateResult{MeetingID: existingID, Deduplicated: true}
				return nil
			}
		}

		for _, entry := range entries {
			participants, err := json.Marshal(entry.ParticipantIDs)
			if err != nil {
				return fmt.Errorf("encode participants: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO schedule_entries
				 (owner_id, meeting_id, conversation_id, title, start_time, duration_minutes,
				  participant_ids, organizer_id, status, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				entry.OwnerID, entry.MeetingID, entry.ConversationID, entry.Title,
				formatTime(entry.Start), entry.DurationMinutes, string(participants),
				entry.OrganizerID, entry.Status, formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt))
			if err != nil {
				return fmt.Errorf("insert schedule entry: %w", mapError(err))
			}
		}
		result = persistence.CreateResult{MeetingID: meetingID}
		return nil
	})
	if err != nil {
		return persistence.CreateResult{}, err
	}
	return result, nil
}

// GetEntry returns one owner's entry for a meeting.
func (r *EntryRepository) GetEntry(ctx context.Context, ownerID, meetingID string) (persistence.ScheduleEntry, error) {
	row := r.db.sql.QueryRowContext(ctx,
		selectEntryColumns+" FROM schedule_entries WHERE owner_id = ? AND meeting_id = ?",
		ownerID, meetingID)
	entry, err := scanEntry(row)
	if err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("get schedule entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns the entries matching filter, ordered by start time
// ascending then meeting id for a stable order.
func (r *EntryRepository) ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.ScheduleEntry, error) {
	query := selectEntryColumns + " FROM schedule_entries WHERE owner_id = ?"
	args := []any{filter.OwnerID}
	if filter.ConversationID != "" {
		query += " AND conversation_id = ?"
		args = append(args, filter.ConversationID)
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(", ?", len(filter.Statuses)-1) + ")"
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.StartsAfter != nil {
		query += " AND start_time >= ?"
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		query += " AND start_time < ?"
		args = append(args, formatTime(*filter.StartsBefore))
	}
	query += " ORDER BY start_time, meeting_id"

	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", mapError(err))
	}
	defer rows.Close()

	entries := []persistence.ScheduleEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list schedule entries: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// UpdateEntryStatus sets the status of one owner's entry.
func (r *EntryRepository) UpdateEntryStatus(ctx context.Context, ownerID, meetingID, status string, updatedAt time.Time) error {
	outcome, err := r.db.sql.ExecContext(ctx,
		"UPDATE schedule_entries SET status = ?, updated_at = ? WHERE owner_id = ? AND meeting_id = ?",
		status, formatTime(updatedAt), ownerID, meetingID)
	if err != nil {
		return fmt.Errorf("update entry status: %w", mapError(err))
	}
	affected, err := outcome.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update entry status: %w", persistence.ErrNotFound)
	}
	return nil
}

// DeleteMeetingEntries removes the meeting's entry from every listed owner's
// keyspace in a single transaction.
func (r *EntryRepository) DeleteMeetingEntries(ctx context.Context, meetingID string, ownerIDs []string) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, ownerID := range ownerIDs {
			_, err := tx.ExecContext(ctx,
				"DELETE FROM schedule_entries WHERE owner_id = ? AND meeting_id = ?",
				ownerID, meetingID)
			if err != nil {
				return fmt.Errorf("delete schedule entry: %w", mapError(err))
			}
		}
		return nil
	})
}

const selectEntryColumns = `SELECT owner_id, meeting_id, conversation_id, title, start_time,
	duration_minutes, participant_ids, organizer_id, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (persistence.ScheduleEntry, error) {
	var entry persistence.ScheduleEntry
	var start, created, updated, participants string
	err := row.Scan(&entry.OwnerID, &entry.MeetingID, &entry.ConversationID, &entry.Title,
		&start, &entry.DurationMinutes, &participants, &entry.OrganizerID, &entry.Status,
		&created, &updated)
	if err != nil {
		return persistence.ScheduleEntry{}, mapError(err)
	}
	if entry.Start, err = parseTime(start); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	if entry.CreatedAt, err = parseTime(created); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	if entry.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.ScheduleEntry{}, err
	}
	if err := json.Unmarshal([]byte(participants), &entry.ParticipantIDs); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("decode participants: %w", err)
	}
	return entry, nil
}
