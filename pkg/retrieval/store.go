package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
)

// DocumentStore performs similarity search over the document_chunk table.
// The table is populated by the ingestion pipeline; this store only reads.
type DocumentStore struct {
	db       *database.Client
	embedder Embedder
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db *database.Client, embedder Embedder) *DocumentStore {
	return &DocumentStore{db: db, embedder: embedder}
}

// Search embeds the query and returns the k nearest chunks by cosine
// distance, nearest first.
func (s *DocumentStore) Search(httpCtx context.Context, query string, k int) ([]models.DocumentChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if k <= 0 {
		k = 5
	}

	ctx, cancel := context.WithTimeout(httpCtx, 15*time.Second)
	defer cancel()

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.Pool().Query(ctx,
		`SELECT id, source_path, page_number, content, embedding <=> $1 AS distance
		 FROM document_chunk
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var c models.DocumentChunk
		if err := rows.Scan(&c.ID, &c.SourcePath, &c.PageNumber, &c.Content, &c.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
