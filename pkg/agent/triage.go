package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lendwise/underwriter/pkg/models"
)

// Route is the triage decision for a turn: which tool to call with which
// arguments, and the intent to record on the conversation.
type Route struct {
	Tool    string
	Args    map[string]string
	Intent  models.ActiveIntent
	Program string // matched catalog program name, when Intent is PROGRAM_SPECIFIC
}

// Classifier routes turns through a deterministic decision table. Catalog
// name detection is fuzzy; everything else is keyword and pattern based, so
// the same turn always routes the same way.
type Classifier struct {
	catalog  Catalog
	resolver *ProgramResolver
}

// NewClassifier creates a classifier backed by the live catalog.
func NewClassifier(catalog Catalog, resolver *ProgramResolver) *Classifier {
	return &Classifier{catalog: catalog, resolver: resolver}
}

var analyticalKeywords = []string{
	"how many", "count", "average", "avg", "sum", "total",
	"highest", "lowest", "maximum", "minimum", "most", "fewest",
	"per lender", "across all", "compare",
}

var scenarioKeywords = []string{
	"qualify", "qualifies", "eligible", "eligibility for", "scenario",
	"borrower", "my client", "can i get", "options for",
}

// Classify decides the route for a turn with no open parameter collection.
func (c *Classifier) Classify(ctx context.Context, text string) (*Route, error) {
	lower := strings.ToLower(text)
	extracted := ExtractScenarioParameters(text)

	// A mentioned program name takes precedence: with scenario parameters it
	// narrows that program's matrix, without them it fetches guidelines.
	program, err := c.bestProgramMention(ctx, text)
	if err != nil {
		return nil, err
	}
	if program != "" {
		args := map[string]string{"program_name": program}
		tool := ToolGetProgramGuidelines
		if len(extracted) > 0 {
			tool = ToolFindEligibilityRules
			for _, p := range []string{models.ParamFicoScore, models.ParamLoanAmount, models.ParamOccupancy, models.ParamLoanPurpose} {
				if v, ok := extracted[p]; ok {
					args[p] = v
				}
			}
		}
		return &Route{Tool: tool, Args: args, Intent: models.IntentProgramSpecific, Program: program}, nil
	}

	if containsAny(lower, scenarioKeywords) || len(extracted) >= 2 {
		return &Route{Tool: ToolMatchLoanPrograms, Args: extracted, Intent: models.IntentScenario}, nil
	}

	if strings.Contains(lower, "program") {
		if lender, ok, err := c.bestLenderMention(ctx, text); err != nil {
			return nil, err
		} else if ok {
			return &Route{
				Tool:   ToolListProgramsByLender,
				Args:   map[string]string{"lender_name": lender},
				Intent: models.IntentGeneral,
			}, nil
		}
	}

	if strings.Contains(lower, "lender") && containsAny(lower, []string{"list", "which", "what", "who", "available", "all", "work with"}) {
		return &Route{Tool: ToolListLenders, Intent: models.IntentGeneral}, nil
	}

	if containsAny(lower, analyticalKeywords) {
		return &Route{
			Tool:   ToolQueryAssistant,
			Args:   map[string]string{"question": text},
			Intent: models.IntentGeneral,
		}, nil
	}

	return &Route{
		Tool:   ToolSearchDocuments,
		Args:   map[string]string{"query": text},
		Intent: models.IntentGeneral,
	}, nil
}

// bestProgramMention slides word windows across the turn and scores each
// against the catalog program names, returning the best name at or above
// the resolver threshold.
func (c *Classifier) bestProgramMention(ctx context.Context, text string) (string, error) {
	programs, err := c.catalog.ListProgramNames(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list program names: %w", err)
	}
	words := tokenize(text)

	bestName, bestScore := "", 0
	for _, p := range programs {
		nameLen := len(tokenize(p.Name))
		for _, window := range wordWindows(words, nameLen) {
			if score := c.resolver.Score(window, p.Name); score > bestScore {
				bestName, bestScore = p.Name, score
			}
		}
	}
	if bestScore < c.resolver.threshold {
		return "", nil
	}
	return bestName, nil
}

func (c *Classifier) bestLenderMention(ctx context.Context, text string) (string, bool, error) {
	lenders, err := c.catalog.ListLenders(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list lenders: %w", err)
	}
	words := tokenize(text)

	bestName, bestScore := "", 0
	for _, l := range lenders {
		nameLen := len(tokenize(l))
		for _, window := range wordWindows(words, nameLen) {
			if score := c.resolver.Score(window, l); score > bestScore {
				bestName, bestScore = l, score
			}
		}
	}
	if bestScore < c.resolver.threshold {
		return "", false, nil
	}
	return bestName, true, nil
}

// wordWindows returns every contiguous run of size-1, size and size+1 words.
func wordWindows(words []string, size int) []string {
	var windows []string
	for _, n := range []int{size - 1, size, size + 1} {
		if n < 1 {
			continue
		}
		for i := 0; i+n <= len(words); i++ {
			windows = append(windows, strings.Join(words[i:i+n], " "))
		}
	}
	return windows
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
