package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/lendwise/underwriter/pkg/models"
)

// ProgramCatalog is the slice of the catalog service the resolver needs.
type ProgramCatalog interface {
	ListProgramNames(ctx context.Context) ([]models.LoanProgram, error)
	GetProgram(ctx context.Context, programID string) (*models.LoanProgram, error)
}

// ProgramResolver maps free-text program names to catalog entries by fuzzy
// similarity. Candidate names are fetched fresh on every call so catalog
// updates are visible without a restart.
type ProgramResolver struct {
	catalog   ProgramCatalog
	threshold int
	metric    strutil.StringMetric
}

// NewProgramResolver creates a resolver with the given acceptance threshold
// (0-100). A candidate scoring below the threshold is never returned.
// Jaro-Winkler tolerates the transpositions and truncations typical of
// typed program names ("DCSR Plu") that edit distance alone scores too low.
func NewProgramResolver(catalog ProgramCatalog, threshold int) *ProgramResolver {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	return &ProgramResolver{catalog: catalog, threshold: threshold, metric: jw}
}

// Score returns the similarity of two names on a 0-100 scale.
func (r *ProgramResolver) Score(a, b string) int {
	sim := strutil.Similarity(normalizeName(a), normalizeName(b), r.metric)
	return int(sim*100 + 0.5)
}

// Resolve finds the loan program whose name best matches the input. It
// returns ErrNoMatch (wrapped in a ResolutionError) when the best candidate
// scores below the threshold or the catalog is empty.
func (r *ProgramResolver) Resolve(ctx context.Context, name string) (*models.LoanProgram, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ResolutionError{Kind: "loan program", Name: name}
	}

	candidates, err := r.catalog.ListProgramNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list program names: %w", err)
	}

	bestScore := -1
	bestID := ""
	for _, c := range candidates {
		if score := r.Score(name, c.Name); score > bestScore {
			bestScore = score
			bestID = c.ID
		}
	}
	if bestID == "" || bestScore < r.threshold {
		return nil, &ResolutionError{Kind: "loan program", Name: name}
	}

	program, err := r.catalog.GetProgram(ctx, bestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched program: %w", err)
	}
	return program, nil
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
