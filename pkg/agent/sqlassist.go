package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lendwise/underwriter/pkg/llm"
	"github.com/lendwise/underwriter/pkg/services"
)

// QueryRunner executes guardrail-approved statements.
type QueryRunner interface {
	ExecuteReadOnly(ctx context.Context, query string) (*services.QueryResult, error)
}

// schemaDescription is the catalog schema as presented to the model for SQL
// generation. Kept in sync with the migrations by hand.
const schemaDescription = `Database schema (PostgreSQL):

TABLE lender
  id UUID PRIMARY KEY
  name TEXT -- lender name, unique

TABLE loan_program
  id UUID PRIMARY KEY
  lender_id UUID REFERENCES lender(id)
  name TEXT -- program name
  program_code TEXT NULL
  description TEXT NULL
  min_loan_amount NUMERIC NULL
  max_loan_amount NUMERIC NULL

TABLE guideline
  id UUID PRIMARY KEY
  loan_program_id UUID REFERENCES loan_program(id)
  category TEXT -- e.g. CREDIT, INCOME_DOCUMENTATION, PROPERTY_ELIGIBILITY
  content TEXT
  source_reference TEXT NULL

TABLE eligibility_matrix_rule
  id UUID PRIMARY KEY
  loan_program_id UUID REFERENCES loan_program(id)
  min_loan_amount NUMERIC
  max_loan_amount NUMERIC
  min_fico_score INT
  max_fico_score INT NULL -- NULL means no upper bound
  occupancy_type TEXT -- PRIMARY, SECOND_HOME, INVESTMENT
  loan_purpose TEXT -- PURCHASE, RATE_TERM, CASH_OUT
  dscr_value TEXT NULL
  max_ltv NUMERIC -- percentage, e.g. 80.0
  reserves_months INT NULL
  notes TEXT NULL`

var catalogTables = []string{"lender", "loan_program", "guideline", "eligibility_matrix_rule"}

const sqlSystemPrompt = `You are a PostgreSQL query generator for a mortgage lending catalog.
Given a question, respond with exactly one SELECT statement that answers it.
Respond with only the SQL, no explanation. Never modify data.

` + schemaDescription

// SQLAssistant answers analytical questions by generating a SQL query,
// validating it through the guardrail and executing it read-only.
type SQLAssistant struct {
	llm       llm.Client
	guardrail *Guardrail
	runner    QueryRunner
}

// NewSQLAssistant creates the assistant with a guardrail scoped to the
// catalog tables.
func NewSQLAssistant(client llm.Client, runner QueryRunner) *SQLAssistant {
	return &SQLAssistant{
		llm:       client,
		guardrail: NewGuardrail(catalogTables),
		runner:    runner,
	}
}

// Answer generates, validates and executes a query for the question. A
// guardrail rejection logs the offending statement and returns a
// SecurityError; the statement is never executed.
func (a *SQLAssistant) Answer(ctx context.Context, question string) (*ToolResult, error) {
	generated, err := a.llm.GenerateText(ctx, &llm.GenerateRequest{
		System:   sqlSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: question}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query: %w", err)
	}

	query, err := a.guardrail.Validate(generated)
	if err != nil {
		slog.Warn("Generated query rejected by guardrail",
			"question", question, "statement", generated, "error", err)
		return nil, err
	}

	result, err := a.runner.ExecuteReadOnly(ctx, query)
	if err != nil {
		slog.Error("Dynamic query failed", "query", query, "error", err)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	if len(result.Rows) == 0 {
		return &ToolResult{
			Text:  "The query executed successfully but returned no results.",
			Empty: true,
		}, nil
	}

	var b strings.Builder
	b.WriteString("Query result:\n")
	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteString("\n")
	for _, row := range result.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return &ToolResult{Text: b.String()}, nil
}
