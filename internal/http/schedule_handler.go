package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
)

type scheduleService interface {
	ListSchedule(ctx context.Context, params application.ListScheduleParams) ([]application.ScheduleEntry, error)
	Watch(ownerID string) (<-chan struct{}, func(), error)
}

type ScheduleHandler struct {
	service           scheduleService
	responder         responder
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{
		service:           service,
		responder:         newResponder(base),
		logger:            base,
		heartbeatInterval: 30 * time.Second,
	}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

// List returns the caller's schedule within a conversation. The view query
// parameter selects upcoming (default) or done entries.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request, conversationID string) {
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

	view := application.ScheduleView(r.URL.Query().Get("view"))
	entries, err := h.service.ListSchedule(r.Context(), application.ListScheduleParams{
		Principal:      principal,
		ConversationID: conversationID,
		View:           view,
	})
	if err != nil {
		h.log(r.Context(), "List", "actor_id", principal.UserID, "conversation_id", conversationID, "view", string(view)).ErrorContext(r.Context(), "failed to list schedule", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleResponse(entries))
}

// Watch streams the caller's schedule over server-sent events. The current
// snapshot is sent immediately, then again whenever the schedule changes.
func (h *ScheduleHandler) Watch(w http.ResponseWriter, r *http.Request, conversationID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, fmt.Errorf("streaming is not supported"))
		return
	}

	signals, cancel, err := h.service.Watch(principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer cancel()

	logger := h.log(r.Context(), "Watch", "actor_id", principal.UserID, "conversation_id", conversationID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := h.writeSnapshot(r.Context(), w, flusher, principal, conversationID); err != nil {
		logger.ErrorContext(r.Context(), "failed to write schedule snapshot", "error", err)
		return
	}

	logger.InfoContext(r.Context(), "schedule watch started")

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.InfoContext(r.Context(), "schedule watch closed")
			return
		case <-signals:
			if err := h.writeSnapshot(r.Context(), w, flusher, principal, conversationID); err != nil {
				logger.ErrorContext(r.Context(), "failed to write schedule snapshot", "error", err)
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *ScheduleHandler) writeSnapshot(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, principal application.Principal, conversationID string) error {
	entries, err := h.service.ListSchedule(ctx, application.ListScheduleParams{
		Principal:      principal,
		ConversationID: conversationID,
		View:           application.ViewUpcoming,
	})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(toScheduleResponse(entries))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: schedule\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

type scheduleResponse struct {
	Entries []entryResponse `json:"entries"`
}

func toScheduleResponse(entries []application.ScheduleEntry) scheduleResponse {
	responses := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toEntryResponse(entry))
	}
	return scheduleResponse{Entries: responses}
}
