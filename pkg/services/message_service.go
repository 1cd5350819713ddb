package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
)

// MessageService manages the append-only chat transcript.
type MessageService struct {
	db *database.Client
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *database.Client) *MessageService {
	return &MessageService{db: db}
}

// AppendMessage persists one message. Messages are immutable once written;
// there is no update path.
func (s *MessageService) AppendMessage(httpCtx context.Context, req models.AppendMessageRequest) (*models.ChatMessage, error) {
	if req.ConversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAssistant {
		return nil, NewValidationError("role", "must be USER or ASSISTANT")
	}
	if req.Content == "" {
		return nil, NewValidationError("content", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	msg := &models.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		Role:           req.Role,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}
	_, err := s.db.Pool().Exec(ctx,
		`INSERT INTO chat_message (id, conversation_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return msg, nil
}

// GetConversationMessages returns the full transcript in chronological order.
func (s *MessageService) GetConversationMessages(httpCtx context.Context, conversationID string) ([]models.ChatMessage, error) {
	if conversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM chat_message WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetRecentMessages returns up to limit messages per role for the
// summarization window (last N user + last N assistant), merged and sorted
// chronologically.
func (s *MessageService) GetRecentMessages(httpCtx context.Context, conversationID string, perRole int) ([]models.ChatMessage, error) {
	if conversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	if perRole <= 0 {
		return nil, NewValidationError("per_role", "must be positive")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	var merged []models.ChatMessage
	for _, role := range []models.MessageRole{models.RoleUser, models.RoleAssistant} {
		rows, err := s.db.Pool().Query(ctx,
			`SELECT id, conversation_id, role, content, created_at
			 FROM chat_message WHERE conversation_id = $1 AND role = $2
			 ORDER BY created_at DESC LIMIT $3`,
			conversationID, string(role), perRole,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent %s messages: %w", role, err)
		}
		msgs, err := scanMessages(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		merged = append(merged, msgs...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged, nil
}

type messageRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows messageRows) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = models.MessageRole(role)
		out = append(out, msg)
	}
	return out, rows.Err()
}
