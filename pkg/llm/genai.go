package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient calls the Gemini API through the google.golang.org/genai SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed inference client.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

// GenerateText sends a conversation to the model and returns the full response.
func (c *GenAIClient) GenerateText(ctx context.Context, req *GenerateRequest) (string, error) {
	contents, config := c.buildRequest(req)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned an empty response")
	}
	return text, nil
}

// GenerateStream streams the model response as chunks on a channel.
func (c *GenAIClient) GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan Chunk, error) {
	contents, config := c.buildRequest(req)

	chunks := make(chan Chunk, 16)
	go func() {
		defer close(chunks)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				select {
				case chunks <- &ErrorChunk{Message: err.Error()}:
				case <-ctx.Done():
				}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case chunks <- &TextChunk{Content: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

// Close implements Client. The genai SDK manages its own HTTP transport,
// so there is nothing to release.
func (c *GenAIClient) Close() error {
	return nil
}

func (c *GenAIClient) buildRequest(req *GenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = req.Temperature
	}
	return contents, config
}
