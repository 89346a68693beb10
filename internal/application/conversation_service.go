package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/command"
)

// ConversationRepository captures the persistence operations for
// conversations and their rosters.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation Conversation) (Conversation, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string, role command.Role, joinedAt time.Time) error
	SetMemberRole(ctx context.Context, conversationID, userID string, role command.Role) error
	ListMembers(ctx context.Context, conversationID string) ([]Member, error)
}

// ConversationService manages conversations and role declarations.
type ConversationService struct {
	conversations ConversationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewConversationService wires dependencies for the conversation service.
func NewConversationService(conversations ConversationRepository, idGenerator func() string, now func() time.Time) *ConversationService {
	return NewConversationServiceWithLogger(conversations, idGenerator, now, nil)
}

// NewConversationServiceWithLogger wires dependencies with a specified logger.
func NewConversationServiceWithLogger(conversations ConversationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ConversationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ConversationService{
		conversations: conversations,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *ConversationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConversationService", operation, attrs...)
}

// CreateConversation creates a conversation with the caller as its first
// member, carrying the role tag they declared.
func (s *ConversationService) CreateConversation(ctx context.Context, params CreateConversationParams) (Conversation, error) {
	if s == nil {
		return Conversation{}, fmt.Errorf("ConversationService is nil")
	}
	if s.conversations == nil {
		return Conversation{}, fmt.Errorf("conversation repository not configured")
	}
	if params.Principal.UserID == "" {
		return Conversation{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "CreateConversation", "user_id", params.Principal.UserID)

	title := strings.TrimSpace(params.Title)
	role := params.Role
	if role == "" {
		role = command.RoleNone
	}

	vErr := &ValidationError{}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if !command.ValidRole(role) {
		vErr.add("role", "unknown role")
	}
	if vErr.HasErrors() {
		return Conversation{}, vErr
	}

	now := s.now()
	conversation := Conversation{
		ID:        s.idGenerator(),
		Title:     title,
		CreatedBy: params.Principal.UserID,
		CreatedAt: now,
	}

	persisted, err := s.conversations.CreateConversation(ctx, conversation)
	if err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to create conversation", "error", err, "error_kind", ErrorKind(err))
		return Conversation{}, err
	}
	if err := s.conversations.AddMember(ctx, persisted.ID, params.Principal.UserID, role, now); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to add creator to roster", "error", err, "error_kind", ErrorKind(err))
		return Conversation{}, err
	}

	logger.With("conversation_id", persisted.ID).InfoContext(ctx, "conversation created")
	return persisted, nil
}

// AddMember adds a user to a conversation. Any existing member may invite.
func (s *ConversationService) AddMember(ctx context.Context, params AddMemberParams) error {
	if s == nil {
		return fmt.Errorf("ConversationService is nil")
	}
	if s.conversations == nil {
		return fmt.Errorf("conversation repository not configured")
	}

	logger := s.loggerWith(ctx, "AddMember",
		"conversation_id", params.ConversationID,
		"user_id", params.UserID,
	)

	role := params.Role
	if role == "" {
		role = command.RoleNone
	}
	if !command.ValidRole(role) {
		vErr := &ValidationError{}
		vErr.add("role", "unknown role")
		return vErr
	}

	if _, err := s.requireMember(ctx, params.ConversationID, params.Principal.UserID); err != nil {
		logger.ErrorContext(ctx, "membership check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.conversations.AddMember(ctx, params.ConversationID, params.UserID, role, s.now()); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to add member", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "member added")
	return nil
}

// SetMyRole updates the role tag the caller declared for themselves.
// Members may only change their own tag.
func (s *ConversationService) SetMyRole(ctx context.Context, params SetMyRoleParams) error {
	if s == nil {
		return fmt.Errorf("ConversationService is nil")
	}
	if s.conversations == nil {
		return fmt.Errorf("conversation repository not configured")
	}

	if !command.ValidRole(params.Role) {
		vErr := &ValidationError{}
		vErr.add("role", "unknown role")
		return vErr
	}

	if err := s.conversations.SetMemberRole(ctx, params.ConversationID, params.Principal.UserID, params.Role); err != nil {
		if isNotFoundError(err) {
			return ErrNotMember
		}
		return mapStoreError(err)
	}
	return nil
}

// Roster returns the conversation's members. Only members may read it.
func (s *ConversationService) Roster(ctx context.Context, principal Principal, conversationID string) ([]Member, error) {
	if s == nil {
		return nil, fmt.Errorf("ConversationService is nil")
	}
	if s.conversations == nil {
		return nil, fmt.Errorf("conversation repository not configured")
	}
	return s.requireMember(ctx, conversationID, principal.UserID)
}

// requireMember loads the roster and verifies that userID belongs to it.
func (s *ConversationService) requireMember(ctx context.Context, conversationID, userID string) ([]Member, error) {
	members, err := s.conversations.ListMembers(ctx, conversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	for _, member := range members {
		if member.UserID == userID {
			return members, nil
		}
	}
	return nil, ErrNotMember
}
