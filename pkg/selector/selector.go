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

package selector

import (
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/schooldiff/schooldiff/pkg/settings"
)

// Source tells which signal produced a selection.
type Source string

const (
	// SourceFormatters means the main school's formatter flags were used.
	SourceFormatters Source = "formatters"
	// SourceMergeSettings means the enabled flags of the merge settings were
	// used as a fallback.
	SourceMergeSettings Source = "mergeSettings"
	// SourceNone means no entity is in scope.
	SourceNone Source = "none"
)

// Selection is the set of entity types to compare.
type Selection struct {
	// Entities is sorted.
	Entities []string
	Source   Source
	// Dropped lists, sorted, the formatter keys flagged true that are absent
	// from both schools' merge settings.
	Dropped []string
}

// SelectTargetEntities decides which entity types are in scope.
//
// The main school's formatters are preferred: they reflect what the live
// sync actually transforms, while merge settings enabled flags can be stale.
// A formatter key is only trusted when the entity exists in the merge
// settings of at least one school. When the formatters are missing, errored,
// have no enabled key, or every enabled key is dropped, the entities flagged
// enabled in either school's merge settings are used instead.
//
// The baseline school's formatters are never consulted. An empty selection
// is a valid outcome.
func SelectTargetEntities(
	log logr.Logger,
	mainFormatters settings.Formatters,
	mainMergeSettings, baselineMergeSettings settings.MergeSettings,
) Selection {
	selection := Selection{Source: SourceNone}

	if mainFormatters.Valid() {
		available := sets.New(mainMergeSettings.EntityTypes()...)
		available.Insert(baselineMergeSettings.EntityTypes()...)

		selected := sets.New[string]()
		dropped := sets.New[string]()
		for _, entity := range mainFormatters.Enabled {
			if available.Has(entity) {
				selected.Insert(entity)
				continue
			}
			log.Info("dropping formatter entity missing from merge settings", "entity", entity)
			dropped.Insert(entity)
		}
		if dropped.Len() > 0 {
			selection.Dropped = sets.List(dropped)
		}

		if selected.Len() > 0 {
			selection.Entities = sets.List(selected)
			selection.Source = SourceFormatters
			log.V(1).Info("selected entities from formatters", "entities", selection.Entities)
			return selection
		}
	} else {
		log.V(1).Info("formatters unusable, falling back to merge settings", "error", mainFormatters.Error, "present", mainFormatters.Present)
	}

	enabled := sets.New[string]()
	for _, ms := range []settings.MergeSettings{mainMergeSettings, baselineMergeSettings} {
		for _, entity := range ms.EntityTypes() {
			if es, ok := ms.Entity(entity); ok && es.Enabled {
				enabled.Insert(entity)
			}
		}
	}
	if enabled.Len() > 0 {
		selection.Entities = sets.List(enabled)
		selection.Source = SourceMergeSettings
		log.V(1).Info("selected entities from merge settings", "entities", selection.Entities)
	}
	return selection
}
