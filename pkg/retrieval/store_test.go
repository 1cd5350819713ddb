package retrieval_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/retrieval"
	testdb "github.com/lendwise/underwriter/test/database"
)

var _ retrieval.Embedder = (*retrieval.GenAIEmbedder)(nil)

// fixedEmbedder returns a canned vector, so ordering is fully determined by
// the seeded chunk embeddings.
type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// axisVector is a 768-dim unit vector along one axis. Distinct axes are
// orthogonal, giving cosine distance 0 to themselves and 1 to each other.
func axisVector(axis int) []float32 {
	v := make([]float32, 768)
	v[axis] = 1
	return v
}

func seedChunks(t *testing.T, client *database.Client) {
	t.Helper()
	chunks := []struct {
		id      string
		page    int
		content string
		axis    int
	}{
		{"d1", 12, "DSCR minimum is 1.00 for purchase transactions.", 0},
		{"d2", 30, "Bank statement income uses a 12 month average.", 1},
		{"d3", 45, "Gift funds allowed after minimum borrower contribution.", 2},
	}
	for _, c := range chunks {
		_, err := client.Pool().Exec(context.Background(),
			`INSERT INTO document_chunk (id, source_path, page_number, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.id, "guides/sample.pdf", c.page, c.content, pgvector.NewVector(axisVector(c.axis)),
		)
		require.NoError(t, err)
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedChunks(t, client)

	store := retrieval.NewDocumentStore(client, &fixedEmbedder{vector: axisVector(1)})

	chunks, err := store.Search(context.Background(), "bank statement income", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "d2", chunks[0].ID)
	assert.InDelta(t, 0.0, chunks[0].Distance, 0.001)
	assert.InDelta(t, 1.0, chunks[1].Distance, 0.001)
	assert.Equal(t, 30, chunks[0].PageNumber)
}

func TestSearchLimitsToK(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedChunks(t, client)

	store := retrieval.NewDocumentStore(client, &fixedEmbedder{vector: axisVector(0)})

	chunks, err := store.Search(context.Background(), "dscr", 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "d1", chunks[0].ID)
}

func TestSearchRequiresQuery(t *testing.T) {
	client := testdb.NewTestClient(t)
	store := retrieval.NewDocumentStore(client, &fixedEmbedder{vector: axisVector(0)})

	_, err := store.Search(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestSearchEmbedderFailure(t *testing.T) {
	client := testdb.NewTestClient(t)
	store := retrieval.NewDocumentStore(client, &fixedEmbedder{err: fmt.Errorf("quota exhausted")})

	_, err := store.Search(context.Background(), "reserves", 5)
	assert.ErrorContains(t, err, "failed to embed query")
}
