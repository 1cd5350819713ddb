package models

import "time"

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
)

// ChatMessage is one persisted turn half (user utterance or assistant reply).
// Immutable once written.
type ChatMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AppendMessageRequest carries the fields needed to append a message.
type AppendMessageRequest struct {
	ConversationID string
	Role           MessageRole
	Content        string
}
