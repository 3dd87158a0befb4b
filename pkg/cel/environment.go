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
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Variables available to row filter expressions.
const (
	VarEntity   = "entity"
	VarSection  = "section"
	VarPath     = "path"
	VarStatus   = "status"
	VarLayer    = "layer"
	VarMain     = "main"
	VarBaseline = "baseline"
)

// EnvOption is a function that modifies the environment options.
type EnvOption func(*envOptions)

// envOptions holds all the configuration for the CEL environment.
type envOptions struct {
	// stringVariables will be converted to CEL variable declarations of type
	// 'string'.
	stringVariables []string
	// dynVariables will be converted to CEL variable declarations of type
	// 'dyn'.
	dynVariables []string
	// customDeclarations will be added to the CEL environment.
	customDeclarations []cel.EnvOption
}

// WithStringVariables declares string variables.
func WithStringVariables(names []string) EnvOption {
	return func(opts *envOptions) {
		opts.stringVariables = append(opts.stringVariables, names...)
	}
}

// WithDynVariables declares variables holding arbitrary JSON values.
func WithDynVariables(names []string) EnvOption {
	return func(opts *envOptions) {
		opts.dynVariables = append(opts.dynVariables, names...)
	}
}

// WithCustomDeclarations adds custom declarations to the CEL environment.
func WithCustomDeclarations(declarations []cel.EnvOption) EnvOption {
	return func(opts *envOptions) {
		opts.customDeclarations = append(opts.customDeclarations, declarations...)
	}
}

// DefaultEnvironment returns the default CEL environment.
func DefaultEnvironment(options ...EnvOption) (*cel.Env, error) {
	declarations := []cel.EnvOption{
		ext.Lists(),
		ext.Strings(),
	}

	opts := &envOptions{}
	for _, opt := range options {
		opt(opts)
	}

	declarations = append(declarations, opts.customDeclarations...)

	for _, name := range opts.stringVariables {
		declarations = append(declarations, cel.Variable(name, cel.StringType))
	}
	for _, name := range opts.dynVariables {
		declarations = append(declarations, cel.Variable(name, cel.DynType))
	}

	return cel.NewEnv(declarations...)
}

// RowEnvironment returns the environment row filters are compiled in. On top
// of the default libraries it has the sets extension, e.g.
//
//	sets.contains(["different", "onlyLeft"], [status])
func RowEnvironment() (*cel.Env, error) {
	return DefaultEnvironment(
		WithStringVariables([]string{VarEntity, VarSection, VarPath, VarStatus, VarLayer}),
		WithDynVariables([]string{VarMain, VarBaseline}),
		WithCustomDeclarations([]cel.EnvOption{ext.Sets()}),
	)
}
