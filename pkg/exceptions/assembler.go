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
	"github.com/schooldiff/schooldiff/pkg/settings"
)

// Assembled is the effective field exception map of one school and entity.
type Assembled struct {
	Map FieldMap
	// Degraded is true when the platform map was unavailable and the map
	// was synthesized from configuration only. A path missing from a
	// degraded map means "no exception record found", not "no exception".
	Degraded bool
}

// Assemble builds the effective field exception map of one school for one
// entity type.
//
// When the platform response is usable it is the base layer, and every
// configured field overwrites it: configuration always wins because the
// platform snapshot may predate a configuration change. A path listed in
// several groups keeps the method of the last group.
//
// Otherwise the map holds only the configured paths, and global exceptions
// are applied to those paths. No path is ever invented in that mode: a path
// absent from the other school's live data would show up as a false
// mismatch.
func Assemble(table *GlobalTable, entityType string, resp *settings.FieldMapResponse, cfg *settings.EntitySettings) Assembled {
	if resp.Usable() {
		m := FieldMap(resp.Data).Clone()
		applyConfigured(m, cfg)
		return Assembled{Map: m}
	}

	m := FieldMap{}
	applyConfigured(m, cfg)
	for path := range m {
		if method, ok := table.LookupString(path, entityType); ok {
			m[path] = method
		}
	}
	return Assembled{Map: m, Degraded: true}
}

func applyConfigured(m FieldMap, cfg *settings.EntitySettings) {
	if cfg == nil {
		return
	}
	for _, group := range cfg.FieldExceptions {
		for _, field := range group.Fields {
			m[field.Path.String()] = group.ConflictHandlingMethod
		}
	}
}
