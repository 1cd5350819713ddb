// Package services contains business logic service layer implementations.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
)

// ConversationService manages conversation records and their rolling state.
type ConversationService struct {
	db *database.Client
}

// NewConversationService creates a new ConversationService.
func NewConversationService(db *database.Client) *ConversationService {
	return &ConversationService{db: db}
}

// GetOrCreateConversation returns the conversation with the given ID, or
// creates a new one when the ID is empty or unknown.
func (s *ConversationService) GetOrCreateConversation(httpCtx context.Context, conversationID string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	if conversationID != "" {
		conv, err := s.getConversation(ctx, conversationID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	id := conversationID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	_, err := s.db.Pool().Exec(ctx,
		`INSERT INTO conversation (id, created_at, updated_at, summary) VALUES ($1, $2, $2, '')`,
		id, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return &models.Conversation{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// GetConversation returns a conversation by ID.
func (s *ConversationService) GetConversation(httpCtx context.Context, conversationID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	return s.getConversation(ctx, conversationID)
}

func (s *ConversationService) getConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	var state []byte
	err := s.db.Pool().QueryRow(ctx,
		`SELECT id, created_at, updated_at, summary, scenario_state FROM conversation WHERE id = $1`,
		conversationID,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt, &conv.Summary, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	conv.ScenarioState = json.RawMessage(state)
	return &conv, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *ConversationService) ListConversations(httpCtx context.Context) ([]models.ConversationInfo, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx,
		`SELECT id, summary, created_at, updated_at FROM conversation ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []models.ConversationInfo
	for rows.Next() {
		var info models.ConversationInfo
		if err := rows.Scan(&info.ID, &info.Summary, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// SetSummaryAndState overwrites the rolling summary and the structured
// scenario state in a single statement. Called by the context compactor
// after every turn; last writer wins on concurrent turns.
func (s *ConversationService) SetSummaryAndState(httpCtx context.Context, conversationID, summary string, state json.RawMessage) error {
	if conversationID == "" {
		return NewValidationError("conversation_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	tag, err := s.db.Pool().Exec(ctx,
		`UPDATE conversation SET summary = $2, scenario_state = $3, updated_at = now() WHERE id = $1`,
		conversationID, summary, []byte(state),
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetScenarioState overwrites only the structured scenario state, leaving
// the prose summary untouched. Used when a turn changes routing state but
// the summary refresh has not run yet.
func (s *ConversationService) SetScenarioState(httpCtx context.Context, conversationID string, state json.RawMessage) error {
	if conversationID == "" {
		return NewValidationError("conversation_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	tag, err := s.db.Pool().Exec(ctx,
		`UPDATE conversation SET scenario_state = $2, updated_at = now() WHERE id = $1`,
		conversationID, []byte(state),
	)
	if err != nil {
		return fmt.Errorf("failed to update scenario state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
