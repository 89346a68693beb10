package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/example/meeting-coordinator/internal/command"
)

type conversationService interface {
	CreateConversation(ctx context.Context, params application.CreateConversationParams) (application.Conversation, error)
	AddMember(ctx context.Context, params application.AddMemberParams) error
	SetMyRole(ctx context.Context, params application.SetMyRoleParams) error
	Roster(ctx context.Context, principal application.Principal, conversationID string) ([]application.Member, error)
}

type ConversationHandler struct {
	service   conversationService
	responder responder
	logger    *slog.Logger
}

func NewConversationHandler(service conversationService, logger *slog.Logger) *ConversationHandler {
	base := defaultLogger(logger)
	return &ConversationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConversationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConversationHandler", operation, attrs...)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode conversation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "actor_id", principal.UserID)

	conversation, err := h.service.CreateConversation(r.Context(), application.CreateConversationParams{
		Principal: principal,
		Title:     req.Title,
		Role:      command.Role(req.Role),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create conversation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("conversation_id", conversation.ID).InfoContext(r.Context(), "conversation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toConversationResponse(conversation))
}

func (h *ConversationHandler) AddMember(w http.ResponseWriter, r *http.Request, conversationID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddMember", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode member request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "AddMember", "actor_id", principal.UserID, "conversation_id", conversationID, "user_id", req.UserID)

	err := h.service.AddMember(r.Context(), application.AddMemberParams{
		Principal:      principal,
		ConversationID: conversationID,
		UserID:         req.UserID,
		Role:           command.Role(req.Role),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to add member", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "member added")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ConversationHandler) SetMyRole(w http.ResponseWriter, r *http.Request, conversationID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetMyRole", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode role request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetMyRole", "actor_id", principal.UserID, "conversation_id", conversationID, "role", req.Role)

	err := h.service.SetMyRole(r.Context(), application.SetMyRoleParams{
		Principal:      principal,
		ConversationID: conversationID,
		Role:           command.Role(req.Role),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to set role", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "role updated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ConversationHandler) Roster(w http.ResponseWriter, r *http.Request, conversationID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	members, err := h.service.Roster(r.Context(), principal, conversationID)
	if err != nil {
		h.log(r.Context(), "Roster", "actor_id", principal.UserID, "conversation_id", conversationID).ErrorContext(r.Context(), "failed to list roster", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	responses := make([]memberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, memberResponse{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			Role:        string(member.Role),
			JoinedAt:    member.JoinedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{Members: responses})
}

type createConversationRequest struct {
	Title string `json:"title"`
	Role  string `json:"role"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type conversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

type memberResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at"`
}

type rosterResponse struct {
	Members []memberResponse `json:"members"`
}

func toConversationResponse(conversation application.Conversation) conversationResponse {
	return conversationResponse{
		ID:        conversation.ID,
		Title:     conversation.Title,
		CreatedBy: conversation.CreatedBy,
		CreatedAt: conversation.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
