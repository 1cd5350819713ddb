package agent

// FrameType distinguishes the frames of a turn stream.
type FrameType string

const (
	// FrameMetadata carries the conversation ID. Always the first frame.
	FrameMetadata FrameType = "metadata"
	// FrameContent carries a fragment of the assistant's answer.
	FrameContent FrameType = "content"
	// FrameError signals an internal failure mid-stream.
	FrameError FrameType = "error"
)

// Frame is one event on a turn stream. Exactly one of the payload fields is
// set, according to Type.
type Frame struct {
	Type           FrameType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Content        string    `json:"content,omitempty"`
	Message        string    `json:"message,omitempty"`
}

func metadataFrame(conversationID string) Frame {
	return Frame{Type: FrameMetadata, ConversationID: conversationID}
}

func contentFrame(text string) Frame {
	return Frame{Type: FrameContent, Content: text}
}

func errorFrame(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}
