// Package models contains shared domain types used across services,
// the agent, and the API layer.
package models

import (
	"encoding/json"
	"time"
)

// Conversation is one chat thread. The rolling summary and the structured
// scenario state are both stored on the conversation row; the summary is
// prose for LLM consumption, the scenario state is the authoritative
// cross-turn routing record.
type Conversation struct {
	ID            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Summary       string
	ScenarioState json.RawMessage // nil until the first completed turn
}

// ConversationInfo is the list-view projection of a conversation.
type ConversationInfo struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationDetail includes the full message history.
type ConversationDetail struct {
	ID        string        `json:"id"`
	Summary   string        `json:"summary"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []ChatMessage `json:"messages"`
}
