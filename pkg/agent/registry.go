package agent

import (
	"context"
	"fmt"
	"sort"
)

// Tier orders tools by preference. The router tries PRIMARY structured
// lookups first, SECONDARY retrieval for open-ended questions, and the
// LAST_RESORT dynamic query tool only for explicitly analytical questions.
type Tier string

const (
	TierPrimary    Tier = "PRIMARY"
	TierSecondary  Tier = "SECONDARY"
	TierLastResort Tier = "LAST_RESORT"
)

// Arg describes one tool argument for shape validation.
type Arg struct {
	Name     string
	Required bool
	Enum     []string // non-empty restricts accepted values
}

// ToolResult is the outcome of a successful tool invocation. Empty marks a
// structurally valid but empty result (no rows, nothing found); empty
// results are reported as-is and never trigger enrichment.
type ToolResult struct {
	Text  string
	Empty bool
}

// Handler executes a tool with validated arguments.
type Handler func(ctx context.Context, args map[string]string) (*ToolResult, error)

// Tool is one registered capability.
type Tool struct {
	Name        string
	Description string
	Tier        Tier
	Args        []Arg
	Handler     Handler
}

// Registry holds the tool set and dispatches invocations.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates a registry from the given tools. Duplicate names are
// a programming error.
func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		if _, exists := r.tools[t.Name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		r.tools[t.Name] = t
	}
	return r, nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch validates the argument shape against the tool's declared schema
// and invokes the handler. Unknown tools and malformed arguments return
// typed errors without reaching the handler.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]string) (*ToolResult, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	declared := make(map[string]*Arg, len(tool.Args))
	for i := range tool.Args {
		declared[tool.Args[i].Name] = &tool.Args[i]
	}
	for argName := range args {
		if _, ok := declared[argName]; !ok {
			return nil, &InvalidArgumentError{Tool: name, Argument: argName, Value: args[argName]}
		}
	}
	for _, spec := range tool.Args {
		value, present := args[spec.Name]
		if !present || value == "" {
			if spec.Required {
				return nil, &InvalidArgumentError{Tool: name, Argument: spec.Name, Value: ""}
			}
			continue
		}
		if len(spec.Enum) > 0 && !contains(spec.Enum, value) {
			return nil, &InvalidArgumentError{Tool: name, Argument: spec.Name, Value: value, Valid: spec.Enum}
		}
	}

	return tool.Handler(ctx, args)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
