// Package llm defines the inference client interface and its streaming
// chunk types. The agent depends only on the Client interface; the Gemini
// implementation lives in genai.go.
package llm

import "context"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation message sent to the model.
type Message struct {
	Role    string
	Content string
}

// GenerateRequest is the input to a model call.
type GenerateRequest struct {
	System      string
	Messages    []Message
	Temperature *float32
}

// Client is the inference collaborator. All calls are fallible (timeout,
// rate limit, malformed output); callers wrap them with their own timeout
// and retry policy.
type Client interface {
	// GenerateText sends a conversation to the model and returns the full
	// response text.
	GenerateText(ctx context.Context, req *GenerateRequest) (string, error)

	// GenerateStream sends a conversation to the model and returns a stream
	// of chunks. The channel is closed when the stream completes; errors are
	// delivered as ErrorChunk values in the channel.
	GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan Chunk, error)

	// Close releases the underlying connection.
	Close() error
}

// Chunk is the interface for all streaming chunk types.
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeError ChunkType = "error"
)

// TextChunk is a fragment of the model's text response.
type TextChunk struct{ Content string }

// ErrorChunk signals an error from the model provider.
type ErrorChunk struct {
	Message string
}

func (c *TextChunk) chunkType() ChunkType  { return ChunkTypeText }
func (c *ErrorChunk) chunkType() ChunkType { return ChunkTypeError }
