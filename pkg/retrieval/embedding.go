// Package retrieval provides vector search over ingested guideline
// documents: an embedding engine backed by the Gemini API and a Postgres
// pgvector store.
package retrieval

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	// EmbedQuery embeds a search query (retrieval-query task type).
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder generates embeddings using Google's Gemini API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates a Gemini-backed embedder. The model must match
// the one used by the ingestion pipeline that populated the document store.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEmbedder{client: client, model: model}, nil
}

// EmbedQuery embeds a single search query.
func (e *GenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "RETRIEVAL_QUERY",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return result.Embeddings[0].Values, nil
}

// Close is kept for symmetry with other long-lived clients; the genai SDK
// holds no connection state that needs explicit release.
func (e *GenAIEmbedder) Close() error {
	return nil
}
