package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/command"
)

// CommandService interprets natural language scheduling commands and turns
// them into meetings.
type CommandService struct {
	coordination  *CoordinationService
	conversations ConversationRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewCommandService wires dependencies for the command service.
func NewCommandService(coordination *CoordinationService, conversations ConversationRepository, now func() time.Time) *CommandService {
	return NewCommandServiceWithLogger(coordination, conversations, now, nil)
}

// NewCommandServiceWithLogger wires dependencies with a specified logger.
func NewCommandServiceWithLogger(coordination *CoordinationService, conversations ConversationRepository, now func() time.Time, logger *slog.Logger) *CommandService {
	if now == nil {
		now = time.Now
	}
	return &CommandService{
		coordination:  coordination,
		conversations: conversations,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// HandleCommand runs the full pipeline: parse the text, resolve participant
// mentions against the conversation roster, pick a start time, and schedule
// the meeting. The same text against the same roster and clock always
// produces the same meeting.
func (s *CommandService) HandleCommand(ctx context.Context, params CommandParams) (result CommandResult, err error) {
	if s == nil {
		err = fmt.Errorf("CommandService is nil")
		return
	}
	if s.coordination == nil || s.conversations == nil {
		err = fmt.Errorf("command service not fully configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "CommandService", "HandleCommand",
		"conversation_id", params.ConversationID,
		"user_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "command failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", result.Entry.MeetingID,
			"start", result.Entry.Start,
			"confidence", result.StartConfidence,
		).InfoContext(ctx, "command scheduled meeting")
	}()

	text := strings.TrimSpace(params.Text)
	if text == "" {
		err = &command.ParseError{Reason: "empty command"}
		return
	}

	now := s.now()
	parsed, parseErr := command.Parse(text, now)
	if parseErr != nil {
		err = parseErr
		return
	}

	members, err2 := s.conversations.ListMembers(ctx, params.ConversationID)
	if err2 != nil {
		err = mapStoreError(err2)
		return
	}
	roster := make([]command.RosterMember, 0, len(members))
	callerPresent := false
	for _, member := range members {
		roster = append(roster, command.RosterMember{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			Role:        member.Role,
		})
		if member.UserID == params.Principal.UserID {
			callerPresent = true
		}
	}
	if !callerPresent {
		err = ErrNotMember
		return
	}

	participantIDs, resolveErr := command.Resolve(parsed.Specs, roster, params.Principal.UserID)
	if resolveErr != nil {
		err = resolveErr
		return
	}

	start, confidence := parsed.Start, parsed.StartConfidence
	if parsed.Earliest {
		var slot time.Time
		slot, err = s.coordination.EarliestOpenSlot(ctx, params.Principal.UserID, now, parsed.DurationMinutes)
		if err != nil {
			return
		}
		start, confidence = &slot, 1.0
	}
	if start == nil {
		err = &command.ParseError{Reason: "no start time understood"}
		return
	}
	if !start.After(now) {
		vErr := &ValidationError{}
		vErr.add("start", "start time must be in the future")
		err = vErr
		return
	}

	created, createErr := s.coordination.CreateMeeting(ctx, CreateMeetingParams{
		Principal:       params.Principal,
		ConversationID:  params.ConversationID,
		Title:           parsed.Title,
		Start:           *start,
		DurationMinutes: parsed.DurationMinutes,
		ParticipantIDs:  participantIDs,
		IdempotencyKey:  params.IdempotencyKey,
	})
	if createErr != nil {
		err = createErr
		return
	}

	result = CommandResult{
		Entry:           created.Entry,
		Deduplicated:    created.Deduplicated,
		Warnings:        created.Warnings,
		StartConfidence: confidence,
	}
	return
}
