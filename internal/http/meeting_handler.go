package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/meeting-coordinator/internal/application"
)

type coordinationService interface {
	DeleteMeeting(ctx context.Context, principal application.Principal, meetingID string) error
	UpdateStatus(ctx context.Context, params application.UpdateStatusParams) (application.ScheduleEntry, error)
}

type MeetingHandler struct {
	service   coordinationService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service coordinationService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

// Delete cancels a meeting across every participant's schedule. Only the
// organizer may cancel.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	if meetingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	logger := h.log(r.Context(), "Delete", "actor_id", principal.UserID, "meeting_id", meetingID)

	if err := h.service.DeleteMeeting(r.Context(), principal, meetingID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete meeting", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// UpdateStatus moves the caller's own copy of a meeting to a new status.
func (h *MeetingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if meetingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus", "actor_id", principal.UserID, "meeting_id", meetingID, "status", req.Status)

	entry, err := h.service.UpdateStatus(r.Context(), application.UpdateStatusParams{
		Principal: principal,
		MeetingID: meetingID,
		Status:    application.Status(req.Status),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update status", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryResponse(entry))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}
