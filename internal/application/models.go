package application

import (
	"time"

	"github.com/example/meeting-coordinator/internal/command"
)

// Principal identifies the authenticated actor performing an operation.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User is an account as seen by application services. The password hash
// never leaves the credential store.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials couples a user with the stored password hash for
// authentication.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Conversation is a group of users who schedule meetings with each other.
type Conversation struct {
	ID        string
	Title     string
	CreatedBy string
	CreatedAt time.Time
}

// Member is one conversation member with their self-declared role tag.
type Member struct {
	ConversationID string
	UserID         string
	DisplayName    string
	Role           command.Role
	JoinedAt       time.Time
}

// Status is the per-owner state of a schedule entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusDone     Status = "done"
)

// ValidStatus reports whether value names a known status.
func ValidStatus(value Status) bool {
	switch value {
	case StatusPending, StatusAccepted, StatusDeclined, StatusDone:
		return true
	}
	return false
}

// statusTransitions lists the target statuses each status may move to.
// Done is terminal; a declined meeting can still be accepted later.
var statusTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusDeclined, StatusDone},
	StatusAccepted: {StatusDeclined, StatusDone},
	StatusDeclined: {StatusAccepted},
	StatusDone:     {},
}

// CanTransition reports whether an entry may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ScheduleEntry is one owner's private view of a meeting. Entries sharing
// MeetingID describe the same meeting; only Status differs per owner.
type ScheduleEntry struct {
	OwnerID         string
	MeetingID       string
	ConversationID  string
	Title           string
	Start           time.Time
	DurationMinutes int
	ParticipantIDs  []string
	OrganizerID     string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// End returns the exclusive end of the entry's time interval.
func (e ScheduleEntry) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// ConflictWarning describes an existing entry that overlaps a newly
// scheduled meeting.
type ConflictWarning struct {
	MeetingID       string
	Title           string
	Start           time.Time
	DurationMinutes int
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult is the outcome of a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// UserInput is the caller supplied portion of a user account.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// CreateUserParams carries a new account request.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// CreateConversationParams carries a new conversation request. Role is the
// role tag the creator declares for themselves.
type CreateConversationParams struct {
	Principal Principal
	Title     string
	Role      command.Role
}

// AddMemberParams adds an existing user to a conversation.
type AddMemberParams struct {
	Principal      Principal
	ConversationID string
	UserID         string
	Role           command.Role
}

// SetMyRoleParams updates the caller's own role tag in a conversation.
type SetMyRoleParams struct {
	Principal      Principal
	ConversationID string
	Role           command.Role
}

// CreateMeetingParams schedules a meeting across every participant's
// schedule. ParticipantIDs need not include the organizer. An empty
// IdempotencyKey disables retry deduplication.
type CreateMeetingParams struct {
	Principal       Principal
	ConversationID  string
	Title           string
	Start           time.Time
	DurationMinutes int
	ParticipantIDs  []string
	IdempotencyKey  string
}

// CreateMeetingResult reports the organizer's entry for the created meeting
// together with overlaps found in the organizer's schedule.
type CreateMeetingResult struct {
	Entry        ScheduleEntry
	Deduplicated bool
	Warnings     []ConflictWarning
}

// UpdateStatusParams moves the caller's entry for a meeting to a new
// status.
type UpdateStatusParams struct {
	Principal Principal
	MeetingID string
	Status    Status
}

// CommandParams carries a natural language scheduling command.
type CommandParams struct {
	Principal      Principal
	ConversationID string
	Text           string
	IdempotencyKey string
}

// CommandResult is the outcome of an interpreted scheduling command.
// StartConfidence reports how literally the start time follows from the
// command text.
type CommandResult struct {
	Entry           ScheduleEntry
	Deduplicated    bool
	Warnings        []ConflictWarning
	StartConfidence float64
}

// ScheduleView selects which slice of a schedule to list.
type ScheduleView string

const (
	// ViewUpcoming lists entries not yet marked done, soonest first.
	ViewUpcoming ScheduleView = "upcoming"
	// ViewDone lists completed entries, most recent first.
	ViewDone ScheduleView = "done"
)

// ListScheduleParams selects the caller's entries within a conversation.
type ListScheduleParams struct {
	Principal      Principal
	ConversationID string
	View           ScheduleView
}
