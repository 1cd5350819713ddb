package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/services"
	testdb "github.com/lendwise/underwriter/test/database"
)

func seedCatalog(t *testing.T, client *database.Client) {
	t.Helper()
	ctx := context.Background()

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO lender (id, name) VALUES ('l1', 'Apex Funding'), ('l2', 'Summit Capital')`, nil},
		{`INSERT INTO loan_program (id, lender_id, name, description) VALUES
			('p1', 'l1', 'DSCR Plus', 'Investor cash-flow program'),
			('p2', 'l1', 'Bank Statement Advantage', NULL),
			('p3', 'l2', 'Jumbo Select', 'Large balance loans')`, nil},
		{`INSERT INTO guideline (id, loan_program_id, category, content, source_reference) VALUES
			('g1', 'p1', 'CREDIT_EVENT_SEASONING', 'No BK in last 36 months.', 'p.12'),
			('g2', 'p1', 'RESERVES', 'Six months reserves required.', NULL),
			('g3', 'p3', 'LOAN_AMOUNTS', 'Up to $3.5M.', NULL)`, nil},
		{`INSERT INTO eligibility_matrix_rule
			(id, loan_program_id, min_loan_amount, max_loan_amount, min_fico_score, max_fico_score,
			 occupancy_type, loan_purpose, max_ltv, reserves_months) VALUES
			('r1', 'p1', 100000, 2000000, 700, NULL, 'INVESTMENT', 'PURCHASE', 80, 6),
			('r2', 'p1', 100000, 2000000, 660, 699, 'INVESTMENT', 'PURCHASE', 75, 9),
			('r3', 'p3', 1000000, 3500000, 720, NULL, 'PRIMARY', 'PURCHASE', 80, 12)`, nil},
	}
	for _, s := range stmts {
		_, err := client.Pool().Exec(ctx, s.sql, s.args...)
		require.NoError(t, err)
	}
}

func TestListLenders(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)

	lenders, err := svc.ListLenders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Apex Funding", "Summit Capital"}, lenders)
}

func TestGetProgramsByLenderPartialName(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)

	programs, err := svc.GetProgramsByLender(context.Background(), "apex")
	require.NoError(t, err)
	require.Len(t, programs, 2)

	programs, err = svc.GetProgramsByLender(context.Background(), "Nonexistent Bank")
	require.NoError(t, err)
	assert.Empty(t, programs)
}

func TestGetProgram(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)

	program, err := svc.GetProgram(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "DSCR Plus", program.Name)
	require.NotNil(t, program.Description)
	assert.Equal(t, "Investor cash-flow program", *program.Description)

	_, err = svc.GetProgram(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetGuidelinesWithCategory(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)
	ctx := context.Background()

	all, err := svc.GetGuidelines(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	category := models.GuidelineCategory("RESERVES")
	filtered, err := svc.GetGuidelines(ctx, "p1", &category)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Six months reserves required.", filtered[0].Content)
}

func TestFindEligibilityRulesFilters(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)
	ctx := context.Background()

	// No filter returns every rule for the program, best LTV first.
	rules, err := svc.FindEligibilityRules(ctx, "p1", services.EligibilityFilter{})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 80.0, rules[0].MaxLTV)

	// A 680 FICO only fits the banded rule.
	fico := 680
	rules, err = svc.FindEligibilityRules(ctx, "p1", services.EligibilityFilter{FicoScore: &fico})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r2", rules[0].ID)

	// A 760 FICO fits the open-ended rule (NULL max_fico means no cap).
	fico = 760
	rules, err = svc.FindEligibilityRules(ctx, "p1", services.EligibilityFilter{FicoScore: &fico})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)
}

func TestMatchPrograms(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)
	ctx := context.Background()

	matches, err := svc.MatchPrograms(ctx, services.ScenarioCriteria{
		FicoScore:   740,
		LoanAmount:  1500000,
		LTV:         75,
		Occupancy:   models.OccupancyInvestment,
		LoanPurpose: models.PurposePurchase,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "DSCR Plus", matches[0].Program.Name)
	assert.Equal(t, "Apex Funding", matches[0].LenderName)
	assert.Equal(t, 80.0, matches[0].Rule.MaxLTV)

	// LTV above every rule's cap matches nothing.
	matches, err = svc.MatchPrograms(ctx, services.ScenarioCriteria{
		FicoScore:   740,
		LoanAmount:  1500000,
		LTV:         95,
		Occupancy:   models.OccupancyInvestment,
		LoanPurpose: models.PurposePurchase,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestExecuteReadOnly(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)

	result, err := svc.ExecuteReadOnly(context.Background(),
		"SELECT name FROM lender ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Apex Funding", result.Rows[0][0])
}

func TestListProgramNames(t *testing.T) {
	client := testdb.NewTestClient(t)
	seedCatalog(t, client)
	svc := services.NewCatalogService(client)

	programs, err := svc.ListProgramNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, programs, 3)
}
