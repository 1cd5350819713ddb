package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuardrail() *Guardrail {
	return NewGuardrail([]string{"lender", "loan_program", "guideline", "eligibility_matrix_rule"})
}

func TestGuardrailAcceptsSelect(t *testing.T) {
	g := newTestGuardrail()

	query, err := g.Validate("SELECT name FROM lender ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM lender ORDER BY name", query)
}

func TestGuardrailStripsMarkdownFences(t *testing.T) {
	g := newTestGuardrail()

	tests := []string{
		"```sql\nSELECT count(*) FROM loan_program\n```",
		"```\nSELECT count(*) FROM loan_program\n```",
		"  SELECT count(*) FROM loan_program;  ",
	}
	for _, raw := range tests {
		query, err := g.Validate(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, "SELECT count(*) FROM loan_program", query)
	}
}

func TestGuardrailRejectsNonSelect(t *testing.T) {
	g := newTestGuardrail()

	for _, raw := range []string{
		"DELETE FROM lender",
		"UPDATE loan_program SET name = 'x'",
		"DROP TABLE guideline",
		"WITH x AS (SELECT 1) SELECT * FROM x", // must start with SELECT
		"",
	} {
		_, err := g.Validate(raw)
		assert.Error(t, err, "input %q", raw)
		assert.True(t, IsSecurityError(err), "input %q", raw)
	}
}

func TestGuardrailRejectsStatementChaining(t *testing.T) {
	g := newTestGuardrail()

	_, err := g.Validate("SELECT name FROM lender; DROP TABLE lender")
	require.Error(t, err)
	assert.True(t, IsSecurityError(err))
}

func TestGuardrailRejectsEmbeddedWriteKeyword(t *testing.T) {
	g := newTestGuardrail()

	_, err := g.Validate("SELECT name FROM lender WHERE name = (DELETE FROM lender RETURNING name)")
	assert.True(t, IsSecurityError(err))
}

func TestGuardrailRejectsUnknownTable(t *testing.T) {
	g := newTestGuardrail()

	_, err := g.Validate("SELECT * FROM pg_shadow")
	require.Error(t, err)
	assert.True(t, IsSecurityError(err))

	_, err = g.Validate("SELECT l.name FROM lender l JOIN secrets s ON s.id = l.id")
	assert.True(t, IsSecurityError(err))
}

func TestGuardrailAllowsJoinsOnKnownTables(t *testing.T) {
	g := newTestGuardrail()

	_, err := g.Validate(
		"SELECT l.name, count(p.id) FROM lender l JOIN loan_program p ON p.lender_id = l.id GROUP BY l.name")
	assert.NoError(t, err)
}

func TestGuardrailTrailingSemicolonOnly(t *testing.T) {
	g := newTestGuardrail()

	query, err := g.Validate("SELECT name FROM lender;")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM lender", query)

	// Two terminators means two statements.
	_, err = g.Validate("SELECT name FROM lender;;")
	assert.Error(t, err)
}
