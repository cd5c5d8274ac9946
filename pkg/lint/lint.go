// Package lint provides static analysis for form schemas.
// It detects potential issues without evaluating any formula.
package lint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/formula"
)

// Issue represents a problem found during static analysis.
type Issue struct {
	Severity string `json:"severity"` // "error", "warning"
	Field    string `json:"field,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
}

// Result contains all issues found by the linter.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Errors returns only the error-severity issues.
func (r *Result) Errors() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == "error" {
			out = append(out, is)
		}
	}
	return out
}

// Run parses a JSON or YAML schema document and lints it.
func Run(text string) (*Result, error) {
	s, err := Parse([]byte(text))
	if err != nil {
		return nil, err
	}
	return Check(s), nil
}

// Parse decodes a schema document. JSON is tried first, then YAML.
func Parse(b []byte) (form.Schema, error) {
	var s form.Schema
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(b, &s); err != nil {
			return form.Schema{}, fmt.Errorf("parse error: %w", err)
		}
		return s, nil
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return form.Schema{}, fmt.Errorf("parse error: %w", err)
	}
	return s, nil
}

// Check performs static analysis on a schema.
func Check(s form.Schema) *Result {
	result := &Result{
		Valid:  true,
		Issues: make([]Issue, 0),
	}

	ids := make(map[string]bool)
	labelOwner := make(map[string]string) // last writer wins, like byLabel
	labelCount := make(map[string]int)
	for _, f := range s.Fields {
		labelOwner[f.Label] = f.ID
		labelCount[f.Label]++
	}

	// Check 1: Field definitions
	for _, f := range s.Fields {
		if f.ID == "" {
			result.addError("", "missing-id", fmt.Sprintf("field '%s' has no id", f.Label))
		} else if ids[f.ID] {
			result.addError(f.ID, "duplicate-id", fmt.Sprintf("id '%s' is used by more than one field", f.ID))
		}
		ids[f.ID] = true

		if err := f.Check(); err != nil {
			result.addError(f.ID, ruleFor(err), err.Error())
		}
	}

	// Check 2: Duplicate labels shadow each other in byLabel
	reported := make(map[string]bool)
	for _, f := range s.Fields {
		if n := labelCount[f.Label]; n > 1 && f.Label != "" && !reported[f.Label] {
			reported[f.Label] = true
			result.addWarning(labelOwner[f.Label], "duplicate-label", fmt.Sprintf(
				"label '%s' is used by %d fields; byLabel resolves to the last one", f.Label, n))
		}
	}

	// Check 3: Formulas
	known := formula.Builtins(time.Now)
	deps := make(map[string][]string)
	for _, f := range s.Fields {
		if !f.IsDerived() || strings.TrimSpace(f.Derived.Formula) == "" {
			continue
		}
		prog, err := formula.Compile(f.Derived.Formula)
		if err != nil {
			result.addError(f.ID, "formula-syntax", err.Error())
			continue
		}

		formula.Walk(prog.Root, func(n formula.Node) bool {
			if id, ok := n.(*formula.Ident); ok && id.Name != formula.ScopeByID && id.Name != formula.ScopeByLabel {
				if _, ok := known.Lookup(id.Name); !ok {
					result.addWarning(f.ID, "unknown-identifier", fmt.Sprintf(
						"'%s' is not available in formulas", id.Name))
				}
			}
			return true
		})

		parents := make(map[string]bool, len(f.Derived.Parents))
		for _, p := range f.Derived.Parents {
			parents[p] = true
			if !ids[p] {
				result.addWarning(f.ID, "unknown-parent", fmt.Sprintf("parent '%s' is not a field", p))
			}
		}

		read := make(map[string]bool)
		for _, ref := range prog.References() {
			target := ref.Key
			if ref.Scope == formula.ScopeByLabel {
				owner, ok := labelOwner[ref.Key]
				if !ok {
					result.addWarning(f.ID, "unknown-reference", fmt.Sprintf("byLabel '%s' matches no field", ref.Key))
					continue
				}
				target = owner
			} else if !ids[ref.Key] {
				result.addWarning(f.ID, "unknown-reference", fmt.Sprintf("byId '%s' matches no field", ref.Key))
				continue
			}
			if !read[target] {
				read[target] = true
				deps[f.ID] = append(deps[f.ID], target)
			}
			if !parents[target] {
				result.addWarning(f.ID, "undeclared-parent", fmt.Sprintf(
					"formula reads '%s' which is not listed as a parent", target))
			}
		}
		for _, p := range f.Derived.Parents {
			if ids[p] && !read[p] {
				result.addWarning(f.ID, "unused-parent", fmt.Sprintf("parent '%s' is not read by the formula", p))
			}
		}
	}

	// Check 4: Dependency cycles among derived fields
	for _, cycle := range findCycles(s.Fields, deps) {
		result.addWarning(cycle[0], "cycle", fmt.Sprintf(
			"derived fields depend on each other: %s (values lag and may never settle)",
			strings.Join(cycle, " -> ")))
	}

	return result
}

func ruleFor(err error) string {
	switch {
	case errors.Is(err, form.ErrMissingLabel):
		return "missing-label"
	case errors.Is(err, form.ErrUnknownType):
		return "unknown-type"
	case errors.Is(err, form.ErrMissingOptions):
		return "missing-options"
	case errors.Is(err, form.ErrIncompleteDerived):
		return "incomplete-derived"
	}
	return "invalid-field"
}

// findCycles walks the dependency graph depth-first from each field in schema
// order and returns every distinct cycle as a closed path "a -> b -> a".
func findCycles(fields []form.Field, deps map[string][]string) [][]string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	seen := make(map[string]bool)
	var cycles [][]string
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		state[id] = active
		stack = append(stack, id)
		for _, next := range deps[id] {
			switch state[next] {
			case unvisited:
				visit(next)
			case active:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				members := append([]string(nil), stack[start:]...)
				key := cycleKey(members)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, append(members, next))
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, f := range fields {
		if state[f.ID] == unvisited && len(deps[f.ID]) > 0 {
			visit(f.ID)
		}
	}
	return cycles
}

func cycleKey(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func (r *Result) addError(field, rule, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, Issue{
		Severity: "error",
		Field:    field,
		Rule:     rule,
		Message:  message,
	})
}

func (r *Result) addWarning(field, rule, message string) {
	r.Issues = append(r.Issues, Issue{
		Severity: "warning",
		Field:    field,
		Rule:     rule,
		Message:  message,
	})
}
