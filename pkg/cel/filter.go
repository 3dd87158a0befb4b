// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cel

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// RowVars are the values a row filter is evaluated against.
type RowVars struct {
	Entity   string
	Section  string
	Path     string
	Status   string
	Layer    string
	Main     interface{}
	Baseline interface{}
}

func (v RowVars) activation() map[string]interface{} {
	return map[string]interface{}{
		VarEntity:   v.Entity,
		VarSection:  v.Section,
		VarPath:     v.Path,
		VarStatus:   v.Status,
		VarLayer:    v.Layer,
		VarMain:     v.Main,
		VarBaseline: v.Baseline,
	}
}

// RowFilter decides which report rows are kept, e.g.
//
//	status != "match" && entity == "sections" && path.startsWith("times")
//
// A nil RowFilter keeps every row.
type RowFilter struct {
	expr    string
	program cel.Program
}

// NewRowFilter compiles expr. An empty expression returns a nil filter.
func NewRowFilter(expr string) (*RowFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := RowEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q: %w: got %v", expr, ErrNotBoolean, out)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for filter %q: %w", expr, err)
	}
	return &RowFilter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *RowFilter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter against one row.
func (f *RowFilter) Match(vars RowVars) (bool, error) {
	if f == nil {
		return true, nil
	}
	val, _, err := f.program.Eval(vars.activation())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", f.expr, err)
	}
	return AsBool(val)
}
