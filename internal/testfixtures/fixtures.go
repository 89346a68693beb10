package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/example/meeting-coordinator/internal/persistence"
)

var (
	userCounter  uint64
	entryCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture represents a deterministic user record that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional
// overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// EntryFixture represents one owner's schedule entry for a meeting.
type EntryFixture struct {
	OwnerID         string
	MeetingID       string
	ConversationID  string
	Title           string
	Start           time.Time
	DurationMinutes int
	ParticipantIDs  []string
	OrganizerID     string
	Status          application.Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EntryOption configures the generated entry fixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a deterministic schedule entry fixture with
// optional overrides. The owner doubles as the organizer unless overridden.
func NewEntryFixture(opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	owner := fmt.Sprintf("user-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := EntryFixture{
		OwnerID:         owner,
		MeetingID:       fmt.Sprintf("meeting-%03d", idx),
		ConversationID:  "conv-001",
		Title:           fmt.Sprintf("Meeting %03d", idx),
		Start:           start,
		DurationMinutes: 60,
		ParticipantIDs:  []string{owner},
		OrganizerID:     owner,
		Status:          application.StatusAccepted,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryOwner sets the owner of the entry.
func WithEntryOwner(ownerID string) EntryOption {
	return func(f *EntryFixture) {
		f.OwnerID = ownerID
	}
}

// WithEntryMeetingID overrides the meeting ID.
func WithEntryMeetingID(id string) EntryOption {
	return func(f *EntryFixture) {
		f.MeetingID = id
	}
}

// WithEntryConversation sets the conversation the meeting belongs to.
func WithEntryConversation(conversationID string) EntryOption {
	return func(f *EntryFixture) {
		f.ConversationID = conversationID
	}
}

// WithEntryStart sets the start time.
func WithEntryStart(start time.Time) EntryOption {
	return func(f *EntryFixture) {
		f.Start = start
	}
}

// WithEntryDuration sets the duration in minutes.
func WithEntryDuration(minutes int) EntryOption {
	return func(f *EntryFixture) {
		f.DurationMinutes = minutes
	}
}

// WithEntryParticipants sets the participant IDs.
func WithEntryParticipants(participants ...string) EntryOption {
	return func(f *EntryFixture) {
		f.ParticipantIDs = append([]string(nil), participants...)
	}
}

// WithEntryOrganizer sets the organizer ID.
func WithEntryOrganizer(organizerID string) EntryOption {
	return func(f *EntryFixture) {
		f.OrganizerID = organizerID
	}
}

// WithEntryStatus sets the per-owner status.
func WithEntryStatus(status application.Status) EntryOption {
	return func(f *EntryFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.ScheduleEntry value.
func (f EntryFixture) Application() application.ScheduleEntry {
	return application.ScheduleEntry{
		OwnerID:         f.OwnerID,
		MeetingID:       f.MeetingID,
		ConversationID:  f.ConversationID,
		Title:           f.Title,
		Start:           f.Start,
		DurationMinutes: f.DurationMinutes,
		ParticipantIDs:  append([]string(nil), f.ParticipantIDs...),
		OrganizerID:     f.OrganizerID,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.ScheduleEntry value.
func (f EntryFixture) Persistence() persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		OwnerID:         f.OwnerID,
		MeetingID:       f.MeetingID,
		ConversationID:  f.ConversationID,
		Title:           f.Title,
		Start:           f.Start,
		DurationMinutes: f.DurationMinutes,
		ParticipantIDs:  append([]string(nil), f.ParticipantIDs...),
		OrganizerID:     f.OrganizerID,
		Status:          string(f.Status),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}
