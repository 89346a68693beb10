package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account storage operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ConversationRepository stores conversations and their member roster.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation Conversation) error
	GetConversation(ctx context.Context, id string) (Conversation, error)
	AddMember(ctx context.Context, conversationID, userID, role string, joinedAt time.Time) error
	SetMemberRole(ctx context.Context, conversationID, userID, role string) error
	ListMembers(ctx context.Context, conversationID string) ([]Member, error)
}

// EntryFilter narrows schedule entry queries to one owner's keyspace.
type EntryFilter struct {
	OwnerID        string
	ConversationID string
	Statuses       []string
	StartsAfter    *time.Time
	StartsBefore   *time.Time
}

// IdempotencyClaim dedupes retried meeting creation. An empty Key disables
// deduplication.
type IdempotencyClaim struct {
	OrganizerID string
	Key         string
}

// CreateResult reports the meeting a batched create resolved to.
// Deduplicated is set when the idempotency key had already been claimed and
// no rows were written.
type CreateResult struct {
	MeetingID    string
	Deduplicated bool
}

// ScheduleEntryRepository stores per-identity schedule entries. Each owner
// has a logically independent keyspace; multi-owner mutations
// (CreateMeetingEntries, DeleteMeetingEntries) are atomic: all rows change
// or none do, with no observable intermediate state.
type ScheduleEntryRepository interface {
	CreateMeetingEntries(ctx context.Context, entries []ScheduleEntry, claim IdempotencyClaim) (CreateResult, error)
	GetEntry(ctx context.Context, ownerID, meetingID string) (ScheduleEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]ScheduleEntry, error)
	UpdateEntryStatus(ctx context.Context, ownerID, meetingID, status string, updatedAt time.Time) error
	DeleteMeetingEntries(ctx context.Context, meetingID string, ownerIDs []string) error
}
