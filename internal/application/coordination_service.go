package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/conflict"
)

// EntryFilter narrows schedule entry queries to one owner's keyspace.
type EntryFilter struct {
	OwnerID        string
	ConversationID string
	Statuses       []Status
	StartsAfter    *time.Time
	StartsBefore   *time.Time
}

// CreateOutcome reports the meeting a batched create resolved to.
type CreateOutcome struct {
	MeetingID    string
	Deduplicated bool
}

// EntryStore captures the persistence operations for schedule entries.
// CreateMeetingEntries and DeleteMeetingEntries must be atomic across
// owners.
type EntryStore interface {
	CreateMeetingEntries(ctx context.Context, entries []ScheduleEntry, organizerID, idempotencyKey string) (CreateOutcome, error)
	GetEntry(ctx context.Context, ownerID, meetingID string) (ScheduleEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]ScheduleEntry, error)
	UpdateEntryStatus(ctx context.Context, ownerID, meetingID string, status Status, updatedAt time.Time) error
	DeleteMeetingEntries(ctx context.Context, meetingID string, ownerIDs []string) error
}

// ScheduleEvent describes a committed change to one meeting's entries.
type ScheduleEvent struct {
	Kind           string
	MeetingID      string
	ConversationID string
	OwnerIDs       []string
	OccurredAt     time.Time
}

// Schedule event kinds.
const (
	EventMeetingCreated   = "meeting.created"
	EventMeetingCancelled = "meeting.cancelled"
	EventStatusChanged    = "meeting.status_changed"
)

// EventSink receives schedule events after their transaction commits.
type EventSink interface {
	PublishScheduleEvent(ctx context.Context, event ScheduleEvent) error
}

// CoordinationService schedules meetings across member schedules. All
// writes fan out to every participant's own entry in one transaction;
// afterwards live views are signalled and an event is published.
type CoordinationService struct {
	entries       EntryStore
	conversations ConversationRepository
	hub           *WatchHub
	events        EventSink
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewCoordinationService wires dependencies for the coordination service.
// hub and events may be nil.
func NewCoordinationService(entries EntryStore, conversations ConversationRepository, hub *WatchHub, events EventSink, idGenerator func() string, now func() time.Time) *CoordinationService {
	return NewCoordinationServiceWithLogger(entries, conversations, hub, events, idGenerator, now, nil)
}

// NewCoordinationServiceWithLogger wires dependencies with a specified logger.
func NewCoordinationServiceWithLogger(entries EntryStore, conversations ConversationRepository, hub *WatchHub, events EventSink, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CoordinationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CoordinationService{
		entries:       entries,
		conversations: conversations,
		hub:           hub,
		events:        events,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *CoordinationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CoordinationService", operation, attrs...)
}

// CreateMeeting schedules a meeting for every participant. The organizer is
// always a participant and starts accepted; everyone else starts pending.
// Overlaps with the organizer's existing commitments are returned as
// warnings, never as errors.
func (s *CoordinationService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (result CreateMeetingResult, err error) {
	if s == nil {
		err = fmt.Errorf("CoordinationService is nil")
		return
	}
	if s.entries == nil || s.conversations == nil {
		err = fmt.Errorf("coordination service not fully configured")
		return
	}

	organizerID := params.Principal.UserID
	logger := s.loggerWith(ctx, "CreateMeeting",
		"conversation_id", params.ConversationID,
		"organizer_id", organizerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", result.Entry.MeetingID,
			"participants", len(result.Entry.ParticipantIDs),
			"deduplicated", result.Deduplicated,
			"warnings", len(result.Warnings),
		).InfoContext(ctx, "meeting created")
	}()

	if organizerID == "" {
		err = ErrUnauthorized
		return
	}

	var members []Member
	members, err = s.conversations.ListMembers(ctx, params.ConversationID)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	memberIDs := make(map[string]bool, len(members))
	for _, member := range members {
		memberIDs[member.UserID] = true
	}
	if !memberIDs[organizerID] {
		err = ErrNotMember
		return
	}

	now := s.now()
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = "Meeting"
	}

	vErr := &ValidationError{}
	if params.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if !params.Start.After(now) {
		vErr.add("start", "start time must be in the future")
	}
	participants := canonicalParticipants(params.ParticipantIDs, organizerID)
	for _, id := range participants {
		if !memberIDs[id] {
			vErr.add("participants", fmt.Sprintf("user %s is not a conversation member", id))
			break
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var warnings []ConflictWarning
	warnings, err = s.organizerConflicts(ctx, organizerID, params.Start, params.DurationMinutes)
	if err != nil {
		return
	}

	meetingID := s.idGenerator()
	entries := make([]ScheduleEntry, 0, len(participants))
	for _, ownerID := range participants {
		status := StatusPending
		if ownerID == organizerID {
			status = StatusAccepted
		}
		entries = append(entries, ScheduleEntry{
			OwnerID:         ownerID,
			MeetingID:       meetingID,
			ConversationID:  params.ConversationID,
			Title:           title,
			Start:           params.Start,
			DurationMinutes: params.DurationMinutes,
			ParticipantIDs:  participants,
			OrganizerID:     organizerID,
			Status:          status,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	var outcome CreateOutcome
	outcome, err = s.entries.CreateMeetingEntries(ctx, entries, organizerID, params.IdempotencyKey)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	if outcome.Deduplicated {
		// A retried request resolved to the previously created meeting.
		var existing ScheduleEntry
		existing, err = s.entries.GetEntry(ctx, organizerID, outcome.MeetingID)
		if err != nil {
			err = mapStoreError(err)
			return
		}
		result = CreateMeetingResult{Entry: existing, Deduplicated: true}
		return
	}

	s.afterCommit(ctx, ScheduleEvent{
		Kind:           EventMeetingCreated,
		MeetingID:      meetingID,
		ConversationID: params.ConversationID,
		OwnerIDs:       participants,
		OccurredAt:     now,
	})

	result = CreateMeetingResult{Warnings: warnings}
	for _, entry := range entries {
		if entry.OwnerID == organizerID {
			result.Entry = entry
			break
		}
	}
	return
}

// DeleteMeeting removes the meeting from every participant's schedule.
// Only the organizer may delete.
func (s *CoordinationService) DeleteMeeting(ctx context.Context, principal Principal, meetingID string) error {
	if s == nil {
		return fmt.Errorf("CoordinationService is nil")
	}
	if s.entries == nil {
		return fmt.Errorf("entry store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMeeting",
		"meeting_id", meetingID,
		"user_id", principal.UserID,
	)

	entry, err := s.entries.GetEntry(ctx, principal.UserID, meetingID)
	if err != nil {
		if isNotFoundError(err) {
			logger.ErrorContext(ctx, "meeting not found", "error_kind", ErrorKind(ErrNotFound))
			return ErrNotFound
		}
		return mapStoreError(err)
	}
	if entry.OrganizerID != principal.UserID {
		logger.ErrorContext(ctx, "delete denied for non-organizer", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.entries.DeleteMeetingEntries(ctx, meetingID, entry.ParticipantIDs); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.afterCommit(ctx, ScheduleEvent{
		Kind:           EventMeetingCancelled,
		MeetingID:      meetingID,
		ConversationID: entry.ConversationID,
		OwnerIDs:       entry.ParticipantIDs,
		OccurredAt:     s.now(),
	})
	logger.InfoContext(ctx, "meeting deleted")
	return nil
}

// UpdateStatus moves the caller's own entry to a new status. Other
// participants' entries are untouched.
func (s *CoordinationService) UpdateStatus(ctx context.Context, params UpdateStatusParams) (ScheduleEntry, error) {
	if s == nil {
		return ScheduleEntry{}, fmt.Errorf("CoordinationService is nil")
	}
	if s.entries == nil {
		return ScheduleEntry{}, fmt.Errorf("entry store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateStatus",
		"meeting_id", params.MeetingID,
		"user_id", params.Principal.UserID,
		"status", string(params.Status),
	)

	if !ValidStatus(params.Status) {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status")
		return ScheduleEntry{}, vErr
	}

	entry, err := s.entries.GetEntry(ctx, params.Principal.UserID, params.MeetingID)
	if err != nil {
		if isNotFoundError(err) {
			return ScheduleEntry{}, ErrNotFound
		}
		return ScheduleEntry{}, mapStoreError(err)
	}

	if !CanTransition(entry.Status, params.Status) {
		logger.ErrorContext(ctx, "status change rejected",
			"from", string(entry.Status), "error_kind", ErrorKind(ErrInvalidStatusChange))
		return ScheduleEntry{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatusChange, entry.Status, params.Status)
	}

	now := s.now()
	if err := s.entries.UpdateEntryStatus(ctx, params.Principal.UserID, params.MeetingID, params.Status, now); err != nil {
		return ScheduleEntry{}, mapStoreError(err)
	}
	entry.Status = params.Status
	entry.UpdatedAt = now

	s.afterCommit(ctx, ScheduleEvent{
		Kind:           EventStatusChanged,
		MeetingID:      params.MeetingID,
		ConversationID: entry.ConversationID,
		OwnerIDs:       []string{params.Principal.UserID},
		OccurredAt:     now,
	})
	logger.InfoContext(ctx, "status updated")
	return entry, nil
}

// EarliestOpenSlot finds the soonest start at or after from where a meeting
// of the given duration fits into the owner's active commitments.
func (s *CoordinationService) EarliestOpenSlot(ctx context.Context, ownerID string, from time.Time, durationMinutes int) (time.Time, error) {
	existing, err := s.activeEntries(ctx, ownerID, from)
	if err != nil {
		return time.Time{}, err
	}
	return conflict.EarliestSlot(toConflictEntries(existing), from, durationMinutes), nil
}

// organizerConflicts reports active commitments of ownerID overlapping the
// proposed interval.
func (s *CoordinationService) organizerConflicts(ctx context.Context, ownerID string, start time.Time, durationMinutes int) ([]ConflictWarning, error) {
	existing, err := s.activeEntries(ctx, ownerID, start.Add(-time.Duration(durationMinutes)*time.Minute))
	if err != nil {
		return nil, err
	}

	collisions := conflict.Detect(toConflictEntries(existing), start, durationMinutes)
	if len(collisions) == 0 {
		return nil, nil
	}
	warnings := make([]ConflictWarning, 0, len(collisions))
	for _, c := range collisions {
		warnings = append(warnings, ConflictWarning{
			MeetingID:       c.MeetingID,
			Title:           c.Title,
			Start:           c.Start,
			DurationMinutes: c.Minutes,
		})
	}
	return warnings, nil
}

// activeEntries lists pending and accepted entries that could still occupy
// time at or after the reference point. Declined and done entries do not
// block the calendar.
func (s *CoordinationService) activeEntries(ctx context.Context, ownerID string, reference time.Time) ([]ScheduleEntry, error) {
	entries, err := s.entries.ListEntries(ctx, EntryFilter{
		OwnerID:  ownerID,
		Statuses: []Status{StatusPending, StatusAccepted},
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	active := entries[:0]
	for _, entry := range entries {
		if entry.End().After(reference) {
			active = append(active, entry)
		}
	}
	return active, nil
}

// afterCommit signals live views and publishes the event. Publish failures
// are logged, never propagated; the write has already committed.
func (s *CoordinationService) afterCommit(ctx context.Context, event ScheduleEvent) {
	if s.hub != nil {
		s.hub.Notify(event.OwnerIDs...)
	}
	if s.events != nil {
		if err := s.events.PublishScheduleEvent(ctx, event); err != nil {
			s.loggerWith(ctx, "PublishScheduleEvent", "meeting_id", event.MeetingID).
				ErrorContext(ctx, "failed to publish schedule event", "error", err)
		}
	}
}

// canonicalParticipants dedupes and sorts the participant set, always
// including the organizer.
func canonicalParticipants(participantIDs []string, organizerID string) []string {
	seen := map[string]bool{organizerID: true}
	out := []string{organizerID}
	for _, id := range participantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func toConflictEntries(entries []ScheduleEntry) []conflict.Entry {
	out := make([]conflict.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, conflict.Entry{
			MeetingID: entry.MeetingID,
			Title:     entry.Title,
			Start:     entry.Start,
			Minutes:   entry.DurationMinutes,
		})
	}
	return out
}
