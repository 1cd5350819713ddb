package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	// ConversationID continues an existing conversation; empty starts a new one.
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

// Chat starts a turn and streams its frames as server-sent events. The
// event name is the frame type; the data is the JSON frame. The turn keeps
// running to completion even if the client disconnects mid-stream.
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	_, frames, err := s.agent.HandleTurn(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case frame, ok := <-frames:
			if !ok {
				return false
			}
			c.SSEvent(string(frame.Type), frame)
			return true
		case <-clientGone:
			// Keep consuming frames so the turn never blocks on a
			// disconnected client and can reach its terminal writes.
			go func() {
				for range frames {
				}
			}()
			return false
		}
	})
}
