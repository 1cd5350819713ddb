package agent

import (
	"regexp"
	"strings"
)

// Guardrail validates model-generated SQL before execution. Only a single
// read-only SELECT statement against known tables is allowed through; the
// connection's privileges are not trusted as the sole line of defense.
type Guardrail struct {
	allowedTables map[string]bool
}

// NewGuardrail creates a guardrail that additionally checks table names
// referenced in FROM and JOIN clauses against the allowed set. An empty set
// disables the table check.
func NewGuardrail(allowedTables []string) *Guardrail {
	allowed := make(map[string]bool, len(allowedTables))
	for _, t := range allowedTables {
		allowed[strings.ToLower(t)] = true
	}
	return &Guardrail{allowedTables: allowed}
}

var (
	fenceRe     = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	selectRe    = regexp.MustCompile(`(?i)^\s*select\b`)
	tableRefRe  = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)
	forbiddenRe = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy)\b`)
)

// Validate cleans and checks a model-generated statement. On success it
// returns the executable query; on rejection it returns a SecurityError and
// the statement must not be executed.
func (g *Guardrail) Validate(raw string) (string, error) {
	query := raw
	if m := fenceRe.FindStringSubmatch(query); m != nil {
		query = m[1]
	}
	query = strings.TrimSpace(query)
	query = strings.TrimSuffix(query, ";")
	query = strings.TrimSpace(query)

	if query == "" {
		return "", &SecurityError{Reason: "empty statement"}
	}
	if strings.Contains(query, ";") {
		return "", &SecurityError{Reason: "multiple statements are not allowed"}
	}
	if !selectRe.MatchString(query) {
		return "", &SecurityError{Reason: "only SELECT statements are allowed"}
	}
	if forbiddenRe.MatchString(query) {
		return "", &SecurityError{Reason: "statement contains a forbidden keyword"}
	}

	if len(g.allowedTables) > 0 {
		for _, m := range tableRefRe.FindAllStringSubmatch(query, -1) {
			table := strings.ToLower(m[1])
			// Strip a schema qualifier if present.
			if i := strings.LastIndex(table, "."); i >= 0 {
				table = table[i+1:]
			}
			if !g.allowedTables[table] {
				return "", &SecurityError{Reason: "statement references unknown table " + m[1]}
			}
		}
	}

	return query, nil
}
