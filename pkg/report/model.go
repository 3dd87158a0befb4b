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

package report

import (
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/questions"
	"github.com/schooldiff/schooldiff/pkg/selector"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

// EntityStatus is the outcome of comparing one entity type, or one payload.
type EntityStatus string

const (
	StatusCompared EntityStatus = "compared"
	// StatusCannotCompare means the data of both schools is unavailable.
	StatusCannotCompare EntityStatus = "cannotCompare"
	// StatusMergeSettingsMissing means the merge settings document of at
	// least one school could not be fetched.
	StatusMergeSettingsMissing EntityStatus = "mergeSettingsMissing"
	StatusMainOnly             EntityStatus = "mainOnly"
	StatusBaselineOnly         EntityStatus = "baselineOnly"
)

// Section names a part of the report. Sections label rows for filters and
// metrics.
type Section string

const (
	SectionFields             Section = "fields"
	SectionMergeSettings      Section = "mergeSettings"
	SectionTemplates          Section = "templates"
	SectionAttributeMappings  Section = "attributeMappings"
	SectionIntegrationFilters Section = "integrationFilters"
)

// Source tells where the value of a field cell comes from. It extends the
// resolution layers with the platform map and the missing record case.
type Source string

const (
	SourceGlobal     Source = Source(conflict.LayerGlobal)
	SourceConfigured Source = Source(conflict.LayerConfigured)
	SourceDefault    Source = Source(conflict.LayerDefault)
	// SourcePlatform is a value read from the platform field exception map.
	SourcePlatform Source = "platform"
	// SourceMissing means the map was degraded and holds no record for the
	// path.
	SourceMissing Source = "missing"
)

// NoRecordFound is shown for cells of degraded maps that hold no record.
const NoRecordFound = "No exception record found"

// Report is the comparison of a main school against a baseline school.
type Report struct {
	Main     string `json:"main"`
	Baseline string `json:"baseline"`

	Selection Selection `json:"selection"`
	Filter    string    `json:"filter,omitempty"`

	Entities           []EntityReport   `json:"entities"`
	Templates          []TemplateReport `json:"templates"`
	AttributeMappings  DocumentReport   `json:"attributeMappings"`
	IntegrationFilters DocumentReport   `json:"integrationFilters"`

	Warnings []Warning `json:"warnings,omitempty"`
	Summary  Summary   `json:"summary"`
}

// Selection records which entity types were compared and why.
type Selection struct {
	Entities []string        `json:"entities"`
	Source   selector.Source `json:"source"`
	Dropped  []string        `json:"dropped,omitempty"`
}

// EntityReport is the comparison of one entity type.
type EntityReport struct {
	Entity string       `json:"entity"`
	Status EntityStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`

	Main     SchoolState `json:"main"`
	Baseline SchoolState `json:"baseline"`

	Fields        []FieldRow  `json:"fields,omitempty"`
	MergeSettings []delta.Row `json:"mergeSettings,omitempty"`
}

// SchoolState describes the inputs one school contributed to an entity.
type SchoolState struct {
	InMergeSettings bool                    `json:"inMergeSettings"`
	Enabled         bool                    `json:"enabled"`
	FieldMapStatus  settings.FieldMapStatus `json:"fieldMapStatus"`
	Degraded        bool                    `json:"degraded"`
	ConfiguredPaths int                     `json:"configuredPaths"`
}

// FieldRow compares the effective exception of one field path.
type FieldRow struct {
	Path     string       `json:"path"`
	Label    string       `json:"label,omitempty"`
	Main     Cell         `json:"main"`
	Baseline Cell         `json:"baseline"`
	Status   delta.Status `json:"status"`
}

// Cell is the effective exception of a field for one school.
type Cell struct {
	Value  conflict.Method `json:"value,omitempty"`
	Source Source          `json:"source"`
}

// Found reports whether the cell holds a value.
func (c Cell) Found() bool {
	return c.Source != SourceMissing && c.Source != ""
}

// Text returns the cell as displayed in reports.
func (c Cell) Text() string {
	if !c.Found() {
		return NoRecordFound
	}
	return string(c.Value)
}

// TemplateReport compares the questions of one template.
type TemplateReport struct {
	Name      string                   `json:"name"`
	Status    EntityStatus             `json:"status"`
	Truncated bool                     `json:"truncated,omitempty"`
	Rows      []questions.Row          `json:"rows,omitempty"`
	Existence []questions.ExistenceRow `json:"existence,omitempty"`
}

// DocumentReport compares a loosely structured payload.
type DocumentReport struct {
	Name   string       `json:"name"`
	Status EntityStatus `json:"status"`
	Rows   []delta.Row  `json:"rows,omitempty"`
}

// WarningKind classifies warnings.
type WarningKind string

const (
	WarningDuplicatePath     WarningKind = "duplicatePath"
	WarningDroppedFormatter  WarningKind = "droppedFormatter"
	WarningAliasCollision    WarningKind = "aliasCollision"
	WarningTemplateTruncated WarningKind = "templateTruncated"
	WarningFieldMapFailed    WarningKind = "fieldMapFailed"
	WarningFilterError       WarningKind = "filterError"
)

// Warning is a data problem found while building the report. Warnings never
// stop the comparison.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Entity  string      `json:"entity,omitempty"`
	School  string      `json:"school,omitempty"`
	Message string      `json:"message"`
}

// Summary counts the report content.
type Summary struct {
	Entities map[EntityStatus]int `json:"entities"`
	Rows     map[delta.Status]int `json:"rows"`
	Degraded int                  `json:"degradedMaps"`
	Warnings int                  `json:"warnings"`
}

// Differences returns the number of rows that are not matches.
func (s Summary) Differences() int {
	n := 0
	for status, count := range s.Rows {
		if status != delta.StatusMatch {
			n += count
		}
	}
	return n
}
