package persistence

import "time"

// User represents an account known to the coordinator.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Conversation is a multi-party conversation whose members schedule
// meetings with each other.
type Conversation struct {
	ID        string
	Title     string
	CreatedBy string
	CreatedAt time.Time
}

// Member is one conversation member together with the role tag they
// declared for themselves.
type Member struct {
	ConversationID string
	UserID         string
	DisplayName    string
	Role           string
	JoinedAt       time.Time
}

// ScheduleEntry is one identity's privately owned projection of a meeting.
// Rows belonging to one meeting share MeetingID across owners; Status is
// the only per-owner mutable field.
type ScheduleEntry struct {
	OwnerID         string
	MeetingID       string
	ConversationID  string
	Title           string
	Start           time.Time
	DurationMinutes int
	ParticipantIDs  []string
	OrganizerID     string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
