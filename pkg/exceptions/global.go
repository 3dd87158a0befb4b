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
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/fieldpath"
)

// FieldMap maps a serialized field path to its conflict handling method.
type FieldMap map[string]conflict.Method

// Clone returns a shallow copy of the map. Cloning nil returns an empty map.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Paths returns the keys of the map, sorted.
func (m FieldMap) Paths() []string {
	paths := maps.Keys(m)
	slices.Sort(paths)
	return paths
}

// GlobalTable holds the hardcoded field exceptions: fields the platform's
// sync machinery always owns, whatever the school configures. Only the entity
// types the table was built with have exceptions; the general baseline is
// merged into each of them. A table is immutable once built.
type GlobalTable struct {
	entities map[string]*compiledTable
}

// noExceptions is the table of an entity type the table does not know.
var noExceptions = &compiledTable{exact: FieldMap{}}

// compiledTable is the effective table of one entity type: the general
// entries merged with the entity specific ones.
type compiledTable struct {
	exact FieldMap
	// patterns are the entries containing a wildcard segment, ordered by
	// number of wildcards then by key.
	patterns []pattern
}

type pattern struct {
	path   fieldpath.Path
	key    string
	method conflict.Method
}

// NewGlobalTable builds a table from a general baseline applying to every
// entity type of perEntity, and entity specific entries. An entity entry
// overrides a general entry with the same key. An entity type with no
// specific entries is declared with an empty map. Inputs are copied.
func NewGlobalTable(general FieldMap, perEntity map[string]FieldMap) *GlobalTable {
	t := &GlobalTable{
		entities: make(map[string]*compiledTable, len(perEntity)),
	}
	for entity, entries := range perEntity {
		t.entities[entity] = compile(general, entries)
	}
	return t
}

func compile(general, overrides FieldMap) *compiledTable {
	merged := general.Clone()
	for k, v := range overrides {
		merged[k] = v
	}

	ct := &compiledTable{exact: FieldMap{}}
	for _, key := range merged.Paths() {
		path, err := fieldpath.Parse(key)
		if err != nil {
			continue
		}
		// keys are stored in their normalized serialized form.
		norm := path.String()
		if path.HasWildcard() {
			ct.patterns = append(ct.patterns, pattern{path: path, key: norm, method: merged[key]})
			continue
		}
		ct.exact[norm] = merged[key]
	}
	slices.SortStableFunc(ct.patterns, func(a, b pattern) int {
		return countWildcards(a.path) - countWildcards(b.path)
	})
	return ct
}

func countWildcards(p fieldpath.Path) int {
	n := 0
	for _, seg := range p {
		if seg == fieldpath.Wildcard {
			n++
		}
	}
	return n
}

func (t *GlobalTable) tableFor(entityType string) *compiledTable {
	if ct, ok := t.entities[entityType]; ok {
		return ct
	}
	return noExceptions
}

// Lookup returns the hardcoded method for path. The exact path is checked
// first, then its prefixes from the longest to the shortest: an entry on a
// parent field governs all its descendants unless a more specific entry
// exists. Nothing is found for an entity type the table does not know.
func (t *GlobalTable) Lookup(path fieldpath.Path, entityType string) (conflict.Method, bool) {
	if t == nil || len(path) == 0 {
		return "", false
	}
	ct := t.tableFor(entityType)

	if method, ok := ct.match(path); ok {
		return method, true
	}
	for _, prefix := range path.Prefixes() {
		if method, ok := ct.match(prefix); ok {
			return method, true
		}
	}
	return "", false
}

// LookupString is Lookup for a serialized path. Unparsable paths are never
// found.
func (t *GlobalTable) LookupString(path string, entityType string) (conflict.Method, bool) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return "", false
	}
	return t.Lookup(p, entityType)
}

// Has reports whether Lookup finds an entry for path.
func (t *GlobalTable) Has(path fieldpath.Path, entityType string) bool {
	_, ok := t.Lookup(path, entityType)
	return ok
}

// All returns a copy of every entry that applies to entityType. It is empty
// for an entity type the table does not know.
func (t *GlobalTable) All(entityType string) FieldMap {
	out := FieldMap{}
	if t == nil {
		return out
	}
	ct := t.tableFor(entityType)
	for k, v := range ct.exact {
		out[k] = v
	}
	for _, p := range ct.patterns {
		out[p.key] = p.method
	}
	return out
}

func (ct *compiledTable) match(path fieldpath.Path) (conflict.Method, bool) {
	if method, ok := ct.exact[path.String()]; ok {
		return method, true
	}
	for _, p := range ct.patterns {
		if p.path.Matches(path) {
			return p.method, true
		}
	}
	return "", false
}

var (
	defaultTableOnce sync.Once
	defaultTable     *GlobalTable
)

// DefaultGlobalTable returns the table seeded from the built-in exception
// data. It is built on first use and shared afterwards; it has no mutation
// API.
func DefaultGlobalTable() *GlobalTable {
	defaultTableOnce.Do(func() {
		defaultTable = NewGlobalTable(generalExceptions, entityExceptions)
	})
	return defaultTable
}
