package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/models"
)

// CatalogService provides read access to the lender/program reference data.
// The catalog is reference data owned by the ingestion pipeline; this service
// never mutates it.
type CatalogService struct {
	db *database.Client
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db *database.Client) *CatalogService {
	return &CatalogService{db: db}
}

// ListLenders returns all lender names, sorted.
func (s *CatalogService) ListLenders(httpCtx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx, `SELECT name FROM lender ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lenders: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan lender: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetProgramsByLender returns the programs of lenders whose name contains the
// given fragment (case-insensitive), sorted by program name.
func (s *CatalogService) GetProgramsByLender(httpCtx context.Context, lenderName string) ([]models.LoanProgram, error) {
	if lenderName == "" {
		return nil, NewValidationError("lender_name", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx,
		`SELECT p.id, p.lender_id, p.name, p.program_code, p.description,
		        p.source_document, p.min_loan_amount, p.max_loan_amount
		 FROM loan_program p JOIN lender l ON l.id = p.lender_id
		 WHERE l.name ILIKE '%' || $1 || '%'
		 ORDER BY p.name`,
		lenderName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get programs for lender: %w", err)
	}
	defer rows.Close()

	return scanPrograms(rows)
}

// ListProgramNames returns the id/name pairs of every program, fetched fresh
// for each entity-resolution call.
func (s *CatalogService) ListProgramNames(httpCtx context.Context) ([]models.LoanProgram, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx, `SELECT id, name FROM loan_program`)
	if err != nil {
		return nil, fmt.Errorf("failed to list program names: %w", err)
	}
	defer rows.Close()

	var out []models.LoanProgram
	for rows.Next() {
		var p models.LoanProgram
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan program name: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProgram returns the full program record by ID.
func (s *CatalogService) GetProgram(httpCtx context.Context, programID string) (*models.LoanProgram, error) {
	if programID == "" {
		return nil, NewValidationError("program_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	var p models.LoanProgram
	err := s.db.Pool().QueryRow(ctx,
		`SELECT id, lender_id, name, program_code, description,
		        source_document, min_loan_amount, max_loan_amount
		 FROM loan_program WHERE id = $1`,
		programID,
	).Scan(&p.ID, &p.LenderID, &p.Name, &p.ProgramCode, &p.Description,
		&p.SourceDocument, &p.MinLoanAmount, &p.MaxLoanAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &p, nil
}

// GetGuidelines returns a program's guidelines ordered by category,
// optionally restricted to one category.
func (s *CatalogService) GetGuidelines(httpCtx context.Context, programID string, category *models.GuidelineCategory) ([]models.Guideline, error) {
	if programID == "" {
		return nil, NewValidationError("program_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	query := `SELECT id, loan_program_id, category, content, source_reference
	          FROM guideline WHERE loan_program_id = $1`
	args := []any{programID}
	if category != nil {
		query += ` AND category = $2`
		args = append(args, string(*category))
	}
	query += ` ORDER BY category`

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get guidelines: %w", err)
	}
	defer rows.Close()

	var out []models.Guideline
	for rows.Next() {
		var g models.Guideline
		var cat string
		if err := rows.Scan(&g.ID, &g.LoanProgramID, &cat, &g.Content, &g.SourceReference); err != nil {
			return nil, fmt.Errorf("failed to scan guideline: %w", err)
		}
		g.Category = models.GuidelineCategory(cat)
		out = append(out, g)
	}
	return out, rows.Err()
}

// EligibilityFilter narrows matrix rule lookups. Nil fields are not applied.
type EligibilityFilter struct {
	FicoScore   *int
	LoanAmount  *float64
	Occupancy   *models.OccupancyType
	LoanPurpose *models.LoanPurposeType
}

// FindEligibilityRules returns the matrix rules of a program matching the
// given criteria. Range columns bound the supplied point values.
func (s *CatalogService) FindEligibilityRules(httpCtx context.Context, programID string, filter EligibilityFilter) ([]models.EligibilityMatrixRule, error) {
	if programID == "" {
		return nil, NewValidationError("program_id", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	query := `SELECT id, loan_program_id, min_loan_amount, max_loan_amount,
	                 min_fico_score, max_fico_score, occupancy_type, loan_purpose,
	                 dscr_value, max_ltv, reserves_months, notes
	          FROM eligibility_matrix_rule WHERE loan_program_id = $1`
	args := []any{programID}

	if filter.FicoScore != nil {
		args = append(args, *filter.FicoScore)
		n := strconv.Itoa(len(args))
		query += ` AND min_fico_score <= $` + n + ` AND (max_fico_score IS NULL OR max_fico_score >= $` + n + `)`
	}
	if filter.LoanAmount != nil {
		args = append(args, *filter.LoanAmount)
		n := strconv.Itoa(len(args))
		query += ` AND min_loan_amount <= $` + n + ` AND max_loan_amount >= $` + n
	}
	if filter.Occupancy != nil {
		args = append(args, string(*filter.Occupancy))
		query += ` AND occupancy_type = $` + strconv.Itoa(len(args))
	}
	if filter.LoanPurpose != nil {
		args = append(args, string(*filter.LoanPurpose))
		query += ` AND loan_purpose = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY max_ltv DESC`

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find eligibility rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// ScenarioCriteria is a fully-collected borrower scenario.
type ScenarioCriteria struct {
	FicoScore   int
	LoanAmount  float64
	LTV         float64
	Occupancy   models.OccupancyType
	LoanPurpose models.LoanPurposeType
}

// MatchPrograms returns every program with at least one matrix rule that the
// scenario satisfies, including the scenario LTV against the rule's max LTV.
func (s *CatalogService) MatchPrograms(httpCtx context.Context, criteria ScenarioCriteria) ([]models.ProgramMatch, error) {
	ctx, cancel := context.WithTimeout(httpCtx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx,
		`SELECT p.id, p.lender_id, p.name, p.program_code, p.description,
		        p.source_document, p.min_loan_amount, p.max_loan_amount,
		        l.name,
		        r.id, r.loan_program_id, r.min_loan_amount, r.max_loan_amount,
		        r.min_fico_score, r.max_fico_score, r.occupancy_type, r.loan_purpose,
		        r.dscr_value, r.max_ltv, r.reserves_months, r.notes
		 FROM eligibility_matrix_rule r
		 JOIN loan_program p ON p.id = r.loan_program_id
		 JOIN lender l ON l.id = p.lender_id
		 WHERE r.min_fico_score <= $1
		   AND (r.max_fico_score IS NULL OR r.max_fico_score >= $1)
		   AND r.min_loan_amount <= $2 AND r.max_loan_amount >= $2
		   AND r.occupancy_type = $3 AND r.loan_purpose = $4
		   AND r.max_ltv >= $5
		 ORDER BY l.name, p.name, r.max_ltv DESC`,
		criteria.FicoScore, criteria.LoanAmount,
		string(criteria.Occupancy), string(criteria.LoanPurpose), criteria.LTV,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to match programs: %w", err)
	}
	defer rows.Close()

	var out []models.ProgramMatch
	for rows.Next() {
		var m models.ProgramMatch
		var occ, purpose string
		if err := rows.Scan(
			&m.Program.ID, &m.Program.LenderID, &m.Program.Name, &m.Program.ProgramCode,
			&m.Program.Description, &m.Program.SourceDocument,
			&m.Program.MinLoanAmount, &m.Program.MaxLoanAmount,
			&m.LenderName,
			&m.Rule.ID, &m.Rule.LoanProgramID, &m.Rule.MinLoanAmount, &m.Rule.MaxLoanAmount,
			&m.Rule.MinFicoScore, &m.Rule.MaxFicoScore, &occ, &purpose,
			&m.Rule.DSCRValue, &m.Rule.MaxLTV, &m.Rule.ReservesMonths, &m.Rule.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan program match: %w", err)
		}
		m.Rule.OccupancyType = models.OccupancyType(occ)
		m.Rule.LoanPurpose = models.LoanPurposeType(purpose)
		out = append(out, m)
	}
	return out, rows.Err()
}

// QueryResult holds the rows of a guardrail-approved dynamic query.
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// ExecuteReadOnly runs an already-validated SELECT statement and returns
// stringified rows with column names. Callers must pass the statement
// through the query guardrail first.
func (s *CatalogService) ExecuteReadOnly(httpCtx context.Context, query string) (*QueryResult, error) {
	if query == "" {
		return nil, NewValidationError("query", "required")
	}

	ctx, cancel := context.WithTimeout(httpCtx, 10*time.Second)
	defer cancel()

	rows, err := s.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &QueryResult{Columns: make([]string, len(fields))}
	for i, f := range fields {
		result.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read query row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				row[i] = "NULL"
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func scanPrograms(rows pgx.Rows) ([]models.LoanProgram, error) {
	var out []models.LoanProgram
	for rows.Next() {
		var p models.LoanProgram
		if err := rows.Scan(&p.ID, &p.LenderID, &p.Name, &p.ProgramCode, &p.Description,
			&p.SourceDocument, &p.MinLoanAmount, &p.MaxLoanAmount); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRules(rows pgx.Rows) ([]models.EligibilityMatrixRule, error) {
	var out []models.EligibilityMatrixRule
	for rows.Next() {
		var r models.EligibilityMatrixRule
		var occ, purpose string
		if err := rows.Scan(&r.ID, &r.LoanProgramID, &r.MinLoanAmount, &r.MaxLoanAmount,
			&r.MinFicoScore, &r.MaxFicoScore, &occ, &purpose,
			&r.DSCRValue, &r.MaxLTV, &r.ReservesMonths, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan eligibility rule: %w", err)
		}
		r.OccupancyType = models.OccupancyType(occ)
		r.LoanPurpose = models.LoanPurposeType(purpose)
		out = append(out, r)
	}
	return out, rows.Err()
}
