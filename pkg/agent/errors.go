package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is returned by the resolver when no catalog entry scores at or
// above the confidence threshold.
var ErrNoMatch = errors.New("no catalog entry matched with sufficient confidence")

// ResolutionError reports a failed catalog name resolution. It is surfaced
// to the user verbatim instead of being escalated to a broader tool.
type ResolutionError struct {
	Kind string // "loan program", "lender"
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not find a %s matching %q", e.Kind, e.Name)
}

func (e *ResolutionError) Unwrap() error { return ErrNoMatch }

// SecurityError reports a generated query rejected by the guardrail. The
// offending statement is logged, never executed.
type SecurityError struct {
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("query rejected: %s", e.Reason)
}

// IsSecurityError checks if an error is a SecurityError.
func IsSecurityError(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

// InvalidArgumentError reports a tool argument that failed validation. The
// message names the valid values so the caller can correct the input.
type InvalidArgumentError struct {
	Tool     string
	Argument string
	Value    string
	Valid    []string
}

func (e *InvalidArgumentError) Error() string {
	if len(e.Valid) > 0 {
		return fmt.Sprintf("%s: invalid %s %q, valid values are: %s",
			e.Tool, e.Argument, e.Value, strings.Join(e.Valid, ", "))
	}
	return fmt.Sprintf("%s: invalid %s %q", e.Tool, e.Argument, e.Value)
}

// IsInvalidArgument checks if an error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}
