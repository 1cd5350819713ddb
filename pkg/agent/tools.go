package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/services"
)

// Tool names.
const (
	ToolListLenders          = "list_lenders"
	ToolListProgramsByLender = "list_programs_by_lender"
	ToolGetProgramGuidelines = "get_program_guidelines"
	ToolFindEligibilityRules = "find_eligibility_rules"
	ToolMatchLoanPrograms    = "match_loan_programs"
	ToolSearchDocuments      = "search_guideline_documents"
	ToolQueryAssistant       = "query_database_assistant"
)

// Catalog is the slice of the catalog service the toolset needs.
type Catalog interface {
	ProgramCatalog
	ListLenders(ctx context.Context) ([]string, error)
	GetProgramsByLender(ctx context.Context, lenderName string) ([]models.LoanProgram, error)
	GetGuidelines(ctx context.Context, programID string, category *models.GuidelineCategory) ([]models.Guideline, error)
	FindEligibilityRules(ctx context.Context, programID string, filter services.EligibilityFilter) ([]models.EligibilityMatrixRule, error)
	MatchPrograms(ctx context.Context, criteria services.ScenarioCriteria) ([]models.ProgramMatch, error)
}

// DocumentSearcher is the retrieval collaborator.
type DocumentSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.DocumentChunk, error)
}

// NewToolset builds the full registry of underwriting tools.
func NewToolset(catalog Catalog, resolver *ProgramResolver, docs DocumentSearcher, assistant *SQLAssistant, retrievalK int) (*Registry, error) {
	return NewRegistry(
		&Tool{
			Name:        ToolListLenders,
			Description: "List every lender in the catalog.",
			Tier:        TierPrimary,
			Handler: func(ctx context.Context, _ map[string]string) (*ToolResult, error) {
				lenders, err := catalog.ListLenders(ctx)
				if err != nil {
					return nil, err
				}
				if len(lenders) == 0 {
					return &ToolResult{Text: "No lenders are available in the catalog.", Empty: true}, nil
				}
				var b strings.Builder
				b.WriteString("Available lenders:\n")
				for _, l := range lenders {
					fmt.Fprintf(&b, "- %s\n", l)
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolListProgramsByLender,
			Description: "List the loan programs offered by a lender.",
			Tier:        TierPrimary,
			Args:        []Arg{{Name: "lender_name", Required: true}},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				lender := args["lender_name"]
				programs, err := catalog.GetProgramsByLender(ctx, lender)
				if err != nil {
					return nil, err
				}
				if len(programs) == 0 {
					return &ToolResult{
						Text:  fmt.Sprintf("No loan programs found for lender %q.", lender),
						Empty: true,
					}, nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Loan programs for %s:\n", lender)
				for _, p := range programs {
					fmt.Fprintf(&b, "- %s", p.Name)
					if p.Description != nil && *p.Description != "" {
						fmt.Fprintf(&b, ": %s", *p.Description)
					}
					b.WriteString("\n")
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolGetProgramGuidelines,
			Description: "Fetch the underwriting guidelines of a loan program, optionally filtered by category.",
			Tier:        TierPrimary,
			Args: []Arg{
				{Name: "program_name", Required: true},
				{Name: "category", Enum: models.ValidGuidelineCategoryValues()},
			},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				program, err := resolver.Resolve(ctx, args["program_name"])
				if err != nil {
					return nil, err
				}
				var category *models.GuidelineCategory
				if raw := args["category"]; raw != "" {
					c, _ := models.ParseGuidelineCategory(raw)
					category = &c
				}
				guidelines, err := catalog.GetGuidelines(ctx, program.ID, category)
				if err != nil {
					return nil, err
				}
				if len(guidelines) == 0 {
					return &ToolResult{
						Text:  fmt.Sprintf("No guidelines found for program %q.", program.Name),
						Empty: true,
					}, nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Guidelines for %s:\n", program.Name)
				for _, g := range guidelines {
					fmt.Fprintf(&b, "\n[%s]\n%s\n", g.Category, g.Content)
					if g.SourceReference != nil && *g.SourceReference != "" {
						fmt.Fprintf(&b, "(Source: %s)\n", *g.SourceReference)
					}
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolFindEligibilityRules,
			Description: "Look up the eligibility matrix of a loan program, narrowed by any scenario parameters supplied.",
			Tier:        TierPrimary,
			Args: []Arg{
				{Name: "program_name", Required: true},
				{Name: "fico_score"},
				{Name: "loan_amount"},
				{Name: "occupancy", Enum: models.ValidOccupancyValues()},
				{Name: "loan_purpose", Enum: models.ValidLoanPurposeValues()},
			},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				program, err := resolver.Resolve(ctx, args["program_name"])
				if err != nil {
					return nil, err
				}
				filter, err := eligibilityFilterFromArgs(args)
				if err != nil {
					return nil, err
				}
				rules, err := catalog.FindEligibilityRules(ctx, program.ID, filter)
				if err != nil {
					return nil, err
				}
				if len(rules) == 0 {
					return &ToolResult{
						Text:  fmt.Sprintf("No eligibility rules found for program %q matching the given criteria.", program.Name),
						Empty: true,
					}, nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Eligibility rules for %s:\n", program.Name)
				for _, r := range rules {
					b.WriteString(formatRule(&r))
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolMatchLoanPrograms,
			Description: "Match a complete borrower scenario against every program's eligibility matrix.",
			Tier:        TierPrimary,
			Args: []Arg{
				{Name: "fico_score", Required: true},
				{Name: "loan_amount", Required: true},
				{Name: "ltv", Required: true},
				{Name: "occupancy", Required: true, Enum: models.ValidOccupancyValues()},
				{Name: "loan_purpose", Required: true, Enum: models.ValidLoanPurposeValues()},
			},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				fico, amount, ltv, occ, purpose, err := ScenarioCriteriaFromCollected(args)
				if err != nil {
					return nil, err
				}
				matches, err := catalog.MatchPrograms(ctx, services.ScenarioCriteria{
					FicoScore:   fico,
					LoanAmount:  amount,
					LTV:         ltv,
					Occupancy:   occ,
					LoanPurpose: purpose,
				})
				if err != nil {
					return nil, err
				}
				if len(matches) == 0 {
					return &ToolResult{
						Text:  "No loan programs match this scenario.",
						Empty: true,
					}, nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Programs matching the scenario (%d FICO, $%.0f loan, %.1f%% LTV, %s, %s):\n",
					fico, amount, ltv, occ, purpose)
				for _, m := range matches {
					fmt.Fprintf(&b, "\n%s / %s (max LTV %.1f%%", m.LenderName, m.Program.Name, m.Rule.MaxLTV)
					if m.Rule.ReservesMonths != nil {
						fmt.Fprintf(&b, ", %d months reserves", *m.Rule.ReservesMonths)
					}
					b.WriteString(")\n")
					if m.Rule.Notes != nil && *m.Rule.Notes != "" {
						fmt.Fprintf(&b, "Notes: %s\n", *m.Rule.Notes)
					}
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolSearchDocuments,
			Description: "Semantic search over the source guideline documents.",
			Tier:        TierSecondary,
			Args:        []Arg{{Name: "query", Required: true}},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				chunks, err := docs.Search(ctx, args["query"], retrievalK)
				if err != nil {
					return nil, err
				}
				if len(chunks) == 0 {
					return &ToolResult{Text: "No relevant document passages found.", Empty: true}, nil
				}
				var b strings.Builder
				b.WriteString("Relevant document passages:\n")
				for _, c := range chunks {
					fmt.Fprintf(&b, "\n[%s, page %d]\n%s\n", c.SourcePath, c.PageNumber, c.Content)
				}
				return &ToolResult{Text: b.String()}, nil
			},
		},
		&Tool{
			Name:        ToolQueryAssistant,
			Description: "Answer an analytical question by generating and running a read-only SQL query.",
			Tier:        TierLastResort,
			Args:        []Arg{{Name: "question", Required: true}},
			Handler: func(ctx context.Context, args map[string]string) (*ToolResult, error) {
				return assistant.Answer(ctx, args["question"])
			},
		},
	)
}

func eligibilityFilterFromArgs(args map[string]string) (services.EligibilityFilter, error) {
	var filter services.EligibilityFilter
	if raw := args["fico_score"]; raw != "" {
		fico, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &InvalidArgumentError{Tool: ToolFindEligibilityRules, Argument: "fico_score", Value: raw}
		}
		filter.FicoScore = &fico
	}
	if raw := args["loan_amount"]; raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, &InvalidArgumentError{Tool: ToolFindEligibilityRules, Argument: "loan_amount", Value: raw}
		}
		filter.LoanAmount = &amount
	}
	if raw := args["occupancy"]; raw != "" {
		occ, _ := models.ParseOccupancyType(raw)
		filter.Occupancy = &occ
	}
	if raw := args["loan_purpose"]; raw != "" {
		purpose, _ := models.ParseLoanPurposeType(raw)
		filter.LoanPurpose = &purpose
	}
	return filter, nil
}

func formatRule(r *models.EligibilityMatrixRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n- Loan $%.0f-$%.0f, FICO %d", r.MinLoanAmount, r.MaxLoanAmount, r.MinFicoScore)
	if r.MaxFicoScore != nil {
		fmt.Fprintf(&b, "-%d", *r.MaxFicoScore)
	} else {
		b.WriteString("+")
	}
	fmt.Fprintf(&b, ", %s, %s", r.OccupancyType, r.LoanPurpose)
	if r.DSCRValue != nil && *r.DSCRValue != "" {
		fmt.Fprintf(&b, ", DSCR %s", *r.DSCRValue)
	}
	fmt.Fprintf(&b, " => max LTV %.1f%%", r.MaxLTV)
	if r.ReservesMonths != nil {
		fmt.Fprintf(&b, ", %d months reserves", *r.ReservesMonths)
	}
	if r.Notes != nil && *r.Notes != "" {
		fmt.Fprintf(&b, " (%s)", *r.Notes)
	}
	b.WriteString("\n")
	return b.String()
}
