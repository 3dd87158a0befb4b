// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package exceptions

import (
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/fieldpath"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

// Resolution is the effective conflict handling method of one field and the
// layer that produced it.
type Resolution struct {
	Value  conflict.Method `json:"value"`
	Source conflict.Layer  `json:"source"`
}

// Resolver resolves field exceptions through three layers, highest
// precedence first:
//
//  1. the global table (hardcoded, cannot be overridden)
//  2. the school's configured field exceptions (exact path match only)
//  3. the entity default method, or resolveAsCoursedog
type Resolver struct {
	table         *GlobalTable
	defaultMethod conflict.Method
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultMethod replaces resolveAsCoursedog as the method used when an
// entity configures no default. Empty values are ignored.
func WithDefaultMethod(method conflict.Method) ResolverOption {
	return func(r *Resolver) {
		if method != "" {
			r.defaultMethod = method
		}
	}
}

// NewResolver returns a resolver backed by table. A nil table disables the
// global layer.
func NewResolver(table *GlobalTable, opts ...ResolverOption) *Resolver {
	r := &Resolver{table: table, defaultMethod: conflict.DefaultMethod}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the global table the resolver uses.
func (r *Resolver) Table() *GlobalTable {
	return r.table
}

// Resolve returns the effective method of path for one school. cfg may be
// nil, in which case only the global and built-in default layers apply.
func (r *Resolver) Resolve(path fieldpath.Path, entityType string, cfg *settings.EntitySettings) Resolution {
	if method, ok := r.table.Lookup(path, entityType); ok {
		return Resolution{Value: method, Source: conflict.LayerGlobal}
	}
	return r.resolveConfigured(path.String(), cfg)
}

// ResolveString is Resolve for a serialized path, the form used by field
// exception maps. An unparsable path skips the global layer.
func (r *Resolver) ResolveString(path string, entityType string, cfg *settings.EntitySettings) Resolution {
	if method, ok := r.table.LookupString(path, entityType); ok {
		return Resolution{Value: method, Source: conflict.LayerGlobal}
	}
	return r.resolveConfigured(path, cfg)
}

// IsConfigured reports whether the school explicitly configures path, as
// opposed to the field silently falling back to the default.
func (r *Resolver) IsConfigured(path string, cfg *settings.EntitySettings) bool {
	_, ok := configuredMethod(path, cfg)
	return ok
}

func (r *Resolver) resolveConfigured(path string, cfg *settings.EntitySettings) Resolution {
	if method, ok := configuredMethod(path, cfg); ok {
		return Resolution{Value: method, Source: conflict.LayerConfigured}
	}
	return Resolution{Value: r.DefaultMethod(cfg), Source: conflict.LayerDefault}
}

// configuredMethod returns the method of the first group listing path. Paths
// are compared in their serialized form; there is no prefix inheritance at
// this layer.
func configuredMethod(path string, cfg *settings.EntitySettings) (conflict.Method, bool) {
	if cfg == nil {
		return "", false
	}
	for _, group := range cfg.FieldExceptions {
		for _, field := range group.Fields {
			if field.Path.String() == path {
				return group.ConflictHandlingMethod, true
			}
		}
	}
	return "", false
}

// DefaultMethod returns the method applied to unconfigured fields of an
// entity.
func (r *Resolver) DefaultMethod(cfg *settings.EntitySettings) conflict.Method {
	if cfg == nil || cfg.ConflictHandlingMethod == "" {
		if r == nil || r.defaultMethod == "" {
			return conflict.DefaultMethod
		}
		return r.defaultMethod
	}
	return cfg.ConflictHandlingMethod
}
