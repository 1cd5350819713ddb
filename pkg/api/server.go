// Package api exposes the HTTP surface: the streaming chat endpoint,
// conversation history reads and a health probe.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lendwise/underwriter/pkg/agent"
	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/version"
)

// TurnHandler starts a conversation turn and streams its frames.
type TurnHandler interface {
	HandleTurn(ctx context.Context, conversationID, userText string) (string, <-chan agent.Frame, error)
}

// ConversationReader serves conversation history.
type ConversationReader interface {
	ListConversations(ctx context.Context) ([]models.ConversationInfo, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
}

// MessageReader serves message history.
type MessageReader interface {
	GetConversationMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
}

// Server is the API server.
type Server struct {
	agent         TurnHandler
	conversations ConversationReader
	messages      MessageReader
	db            *database.Client
	httpServer    *http.Server
}

// NewServer creates the server and registers all routes.
func NewServer(turns TurnHandler, conversations ConversationReader, messages MessageReader, db *database.Client, port int) *Server {
	s := &Server{
		agent:         turns,
		conversations: conversations,
		messages:      messages,
		db:            db,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), securityHeaders())

	v1 := engine.Group("/api/v1")
	v1.POST("/chat", s.Chat)
	v1.GET("/conversations", s.ListConversations)
	v1.GET("/conversations/:id", s.GetConversation)
	v1.GET("/health", s.Health)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Health reports process and database health.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(ctx, s.db.Pool())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": dbHealth,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  version.Full(),
		"database": dbHealth,
	})
}
