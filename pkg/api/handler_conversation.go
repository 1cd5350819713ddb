package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendwise/underwriter/pkg/models"
)

// ListConversations returns all conversations, most recently active first.
func (s *Server) ListConversations(c *gin.Context) {
	conversations, err := s.conversations.ListConversations(c.Request.Context())
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if conversations == nil {
		conversations = []models.ConversationInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversation returns one conversation with its full message history.
func (s *Server) GetConversation(c *gin.Context) {
	id := c.Param("id")

	conv, err := s.conversations.GetConversation(c.Request.Context(), id)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	messages, err := s.messages.GetConversationMessages(c.Request.Context(), id)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	c.JSON(http.StatusOK, models.ConversationDetail{
		ID:        conv.ID,
		Summary:   conv.Summary,
		CreatedAt: conv.CreatedAt,
		Messages:  messages,
	})
}
