package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
)

type commandService interface {
	HandleCommand(ctx context.Context, params application.CommandParams) (application.CommandResult, error)
}

type CommandHandler struct {
	service   commandService
	responder responder
	logger    *slog.Logger
}

func NewCommandHandler(service commandService, logger *slog.Logger) *CommandHandler {
	base := defaultLogger(logger)
	return &CommandHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommandHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommandHandler", operation, attrs...)
}

// Handle interprets a natural language scheduling command posted to a
// conversation. Retries carrying the same Idempotency-Key header return the
// originally scheduled meeting.
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request, conversationID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	if conversationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidConversationID)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Handle", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode command request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Handle", "actor_id", principal.UserID, "conversation_id", conversationID)

	result, err := h.service.HandleCommand(r.Context(), application.CommandParams{
		Principal:      principal,
		ConversationID: conversationID,
		Text:           req.Text,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to handle command", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusCreated
	if result.Deduplicated {
		status = http.StatusOK
	}

	logger.With(
		"meeting_id", result.Entry.MeetingID,
		"deduplicated", result.Deduplicated,
		"warnings", len(result.Warnings),
	).InfoContext(r.Context(), "command scheduled meeting")

	h.responder.writeJSON(r.Context(), w, status, commandResponse{
		Meeting:         toEntryResponse(result.Entry),
		Deduplicated:    result.Deduplicated,
		StartConfidence: result.StartConfidence,
		Warnings:        toWarningResponses(result.Warnings),
	})
}

type commandRequest struct {
	Text string `json:"text"`
}

type commandResponse struct {
	Meeting         entryResponse     `json:"meeting"`
	Deduplicated    bool              `json:"deduplicated"`
	StartConfidence float64           `json:"start_confidence"`
	Warnings        []warningResponse `json:"warnings,omitempty"`
}

type entryResponse struct {
	OwnerID         string   `json:"owner_id"`
	MeetingID       string   `json:"meeting_id"`
	ConversationID  string   `json:"conversation_id"`
	Title           string   `json:"title"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	ParticipantIDs  []string `json:"participant_ids"`
	OrganizerID     string   `json:"organizer_id"`
	Status          string   `json:"status"`
}

type warningResponse struct {
	MeetingID       string `json:"meeting_id"`
	Title           string `json:"title"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

func toEntryResponse(entry application.ScheduleEntry) entryResponse {
	return entryResponse{
		OwnerID:         entry.OwnerID,
		MeetingID:       entry.MeetingID,
		ConversationID:  entry.ConversationID,
		Title:           entry.Title,
		Start:           entry.Start.UTC().Format(time.RFC3339Nano),
		DurationMinutes: entry.DurationMinutes,
		ParticipantIDs:  entry.ParticipantIDs,
		OrganizerID:     entry.OrganizerID,
		Status:          string(entry.Status),
	}
}

func toWarningResponses(warnings []application.ConflictWarning) []warningResponse {
	if len(warnings) == 0 {
		return nil
	}
	responses := make([]warningResponse, 0, len(warnings))
	for _, warning := range warnings {
		responses = append(responses, warningResponse{
			MeetingID:       warning.MeetingID,
			Title:           warning.Title,
			Start:           warning.Start.UTC().Format(time.RFC3339Nano),
			DurationMinutes: warning.DurationMinutes,
		})
	}
	return responses
}
