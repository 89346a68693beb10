package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/meeting-coordinator/internal/persistence"
)

// ConversationRepository stores conversations and their member roster.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a conversation repository backed by db.
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateConversation inserts a new conversation.
func (r *ConversationRepository) CreateConversation(ctx context.Context, conversation persistence.Conversation) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO conversations (id, title, created_by, created_at) VALUES (?, ?, ?, ?)",
		conversation.ID, conversation.Title, conversation.CreatedBy, formatTime(conversation.CreatedAt))
	if err != nil {
		return fmt.Errorf("create conversation: %w", mapError(err))
	}
	return nil
}

// GetConversation returns the conversation with the given id.
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (persistence.Conversation, error) {
	var conversation persistence.Conversation
	var created string
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, title, created_by, created_at FROM conversations WHERE id = ?", id).
		Scan(&conversation.ID, &conversation.Title, &conversation.CreatedBy, &created)
	if err != nil {
		return persistence.Conversation{}, fmt.Errorf("get conversation: %w", mapError(err))
	}
	if conversation.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Conversation{}, err
	}
	return conversation, nil
}

// AddMember adds a user to the conversation roster.
func (r *ConversationRepository) AddMember(ctx context.Context, conversationID, userID, role string, joinedAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO conversation_members (conversation_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		conversationID, userID, role, formatTime(joinedAt))
	if err != nil {
		return fmt.Errorf("add conversation member: %w", mapError(err))
	}
	return nil
}

// SetMemberRole updates the role tag a member declared for themselves.
func (r *ConversationRepository) SetMemberRole(ctx context.Context, conversationID, userID, role string) error {
	outcome, err := r.db.sql.ExecContext(ctx,
		"UPDATE conversation_members SET role = ? WHERE conversation_id = ? AND user_id = ?",
		role, conversationID, userID)
	if err != nil {
		return fmt.Errorf("set member role: %w", mapError(err))
	}
	affected, err := outcome.RowsAffected()
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set member role: %w", persistence.ErrNotFound)
	}
	return nil
}

// ListMembers returns the conversation roster joined with display names,
// ordered by display name.
func (r *ConversationRepository) ListMembers(ctx context.Context, conversationID string) ([]persistence.Member, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		`SELECT m.conversation_id, m.user_id, u.display_name, m.role, m.joined_at
		 FROM conversation_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.conversation_id = ?
		 ORDER BY u.display_name, m.user_id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation members: %w", mapError(err))
	}
	defer rows.Close()

	members := []persistence.Member{}
	for rows.Next() {
		var member persistence.Member
		var joined string
		err := rows.Scan(&member.ConversationID, &member.UserID, &member.DisplayName, &member.Role, &joined)
		if err != nil {
			return nil, fmt.Errorf("list conversation members: %w", mapError(err))
		}
		if member.JoinedAt, err = parseTime(joined); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversation members: %w", err)
	}
	return members, nil
}
