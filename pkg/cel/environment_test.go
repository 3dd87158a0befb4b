// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package cel

import (
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStringVariables(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{
			name:  "empty names",
			names: []string{},
			want:  []string(nil),
		},
		{
			name:  "single name",
			names: []string{"entity"},
			want:  []string{"entity"},
		},
		{
			name:  "multiple names",
			names: []string{"entity", "path", "status"},
			want:  []string{"entity", "path", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &envOptions{}
			WithStringVariables(tt.names)(opts)
			assert.Equal(t, tt.want, opts.stringVariables)
		})
	}
}

func TestWithCustomDeclarations(t *testing.T) {
	opts := &envOptions{}
	WithCustomDeclarations([]cel.EnvOption{
		cel.Variable("test1", cel.AnyType),
		cel.Variable("test2", cel.StringType),
	})(opts)
	assert.Len(t, opts.customDeclarations, 2)
}

func TestDefaultEnvironment(t *testing.T) {
	env, err := DefaultEnvironment(
		WithStringVariables([]string{"name"}),
		WithDynVariables([]string{"value"}),
	)
	require.NoError(t, err)

	ast, issues := env.Compile(`name.lowerAscii() == "x" && value.size() > 0`)
	require.NoError(t, issues.Err())

	program, err := env.Program(ast)
	require.NoError(t, err)

	out, _, err := program.Eval(map[string]interface{}{
		"name":  "X",
		"value": []interface{}{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.True, out)

	_, issues = env.Compile(`undeclared == 1`)
	assert.Error(t, issues.Err())
}

func TestGoNativeType(t *testing.T) {
	tests := []struct {
		name string
		val  ref.Val
		want interface{}
	}{
		{"bool", types.True, true},
		{"int", types.Int(3), int64(3)},
		{"double", types.Double(1.5), float64(1.5)},
		{"string", types.String("a"), "a"},
		{"null", types.NullValue, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoNativeType(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
