// SPDX-License-Identifier: Apache-2.0

// Package condition evaluates CEL expressions against fetched changes so
// non-interactive runs can approve a subset declaratively.
package condition

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/canopyhq/canopy/internal/core/models"
)

// ChangeFilter is a compiled CEL expression over a single change. The
// expression sees a `change` map with element, service and kind fields.
type ChangeFilter struct {
	program cel.Program
}

// NewChangeFilter compiles the expression once; Match evaluates it per change.
func NewChangeFilter(expression string) (*ChangeFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("change", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error parsing filter expression: %w", issues.Err())
	}

	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error type-checking filter expression: %w", issues.Err())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("error compiling filter expression: %w", err)
	}

	return &ChangeFilter{program: program}, nil
}

// Match reports whether the change satisfies the filter expression.
func (f *ChangeFilter) Match(fc models.FetchChange) (bool, error) {
	vars := map[string]interface{}{
		"change": map[string]interface{}{
			"element": fc.Change.Element,
			"service": fc.Change.Service,
			"kind":    string(fc.Change.Kind),
		},
	}

	result, _, err := f.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("error evaluating filter expression: %w", err)
	}
	if result.Type() != types.BoolType {
		return false, fmt.Errorf("filter expression did not evaluate to a boolean")
	}
	return result.Value().(bool), nil
}

// Select returns the subset of changes matching the filter, preserving order.
func (f *ChangeFilter) Select(changes []models.FetchChange) ([]models.FetchChange, error) {
	var approved []models.FetchChange
	for _, fc := range changes {
		ok, err := f.Match(fc)
		if err != nil {
			return nil, err
		}
		if ok {
			approved = append(approved, fc)
		}
	}
	return approved, nil
}
