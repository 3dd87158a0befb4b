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

package questions

import (
	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/schooldiff/schooldiff/pkg/delta"
)

// Property is one of the question attributes consumed by the sync engine.
type Property string

const (
	PropertyRequired               Property = "required"
	PropertyDynamicOptions         Property = "dynamicOptions"
	PropertyConfigDefault          Property = "config_default"
	PropertyConfigUseCourseOptions Property = "config_useCourseOptions"
	PropertyActions                Property = "actions"
)

// Tracked is the closed set of compared properties, in report order. No
// other question attribute is ever compared.
var Tracked = []Property{
	PropertyRequired,
	PropertyDynamicOptions,
	PropertyConfigDefault,
	PropertyConfigUseCourseOptions,
	PropertyActions,
}

var propertyFields = map[Property][]string{
	PropertyRequired:               {"required"},
	PropertyDynamicOptions:         {"config", "dynamicOptions"},
	PropertyConfigDefault:          {"config", "default"},
	PropertyConfigUseCourseOptions: {"config", "useCourseOptions"},
	PropertyActions:                {"actions"},
}

var propertyLabels = map[Property]string{
	PropertyRequired:               "Required",
	PropertyDynamicOptions:         "Dynamic Options",
	PropertyConfigDefault:          "Default Value",
	PropertyConfigUseCourseOptions: "Use Course Options",
	PropertyActions:                "Actions",
}

// Label returns the human readable name of the property.
func (p Property) Label() string {
	if l, ok := propertyLabels[p]; ok {
		return l
	}
	return string(p)
}

// Question is a raw template question.
type Question map[string]interface{}

// Value returns the value of a tracked property. A property missing from the
// question yields nil.
func (q Question) Value(p Property) interface{} {
	fields, ok := propertyFields[p]
	if !ok || q == nil {
		return nil
	}
	v, found, err := unstructured.NestedFieldNoCopy(q, fields...)
	if err != nil || !found {
		return nil
	}
	return v
}

// SubFields returns the nested questions found under config.fields. Entries
// that are not objects are ignored.
func (q Question) SubFields() Set {
	raw, found, err := unstructured.NestedFieldNoCopy(q, "config", "fields")
	if err != nil || !found {
		return nil
	}
	return setFromValue(raw)
}

// Set is a collection of questions keyed by question id.
type Set map[string]Question

// IDs returns the sorted question ids.
func (s Set) IDs() []string {
	ids := sets.New[string]()
	for id := range s {
		ids.Insert(id)
	}
	return sets.List(ids)
}

// Row is the comparison of one tracked property of one question, or of one
// sub-field of a question, between the main and baseline templates.
type Row struct {
	QuestionID string `json:"questionId"`
	// SubFieldID is empty for top level questions.
	SubFieldID string       `json:"subFieldId,omitempty"`
	Property   Property     `json:"property"`
	Label      string       `json:"label"`
	Main       interface{}  `json:"main,omitempty"`
	Baseline   interface{}  `json:"baseline,omitempty"`
	InMain     bool         `json:"inMain"`
	InBaseline bool         `json:"inBaseline"`
	Status     delta.Status `json:"status"`
}

// Path returns the dotted location of the row, e.g. "title.required" or
// "meetings.day.config_default".
func (r Row) Path() string {
	if r.SubFieldID == "" {
		return r.QuestionID + "." + string(r.Property)
	}
	return r.QuestionID + "." + r.SubFieldID + "." + string(r.Property)
}

// Compare returns one row per tracked property for every question found in
// either set, followed by the rows of their config.fields sub-fields. A
// question missing from one side still yields a row for every property so
// the row count per question never depends on which side lacks it.
//
// Values are compared structurally: object keys are order-insensitive,
// arrays are order-sensitive.
func Compare(main, baseline Set) []Row {
	var rows []Row
	for _, id := range unionIDs(main, baseline) {
		mq, inMain := main[id]
		bq, inBaseline := baseline[id]
		rows = append(rows, compareQuestion(id, "", mq, bq, inMain, inBaseline)...)

		var mSub, bSub Set
		if inMain {
			mSub = mq.SubFields()
		}
		if inBaseline {
			bSub = bq.SubFields()
		}
		for _, subID := range unionIDs(mSub, bSub) {
			ms, inMainSub := mSub[subID]
			bs, inBaselineSub := bSub[subID]
			rows = append(rows, compareQuestion(id, subID, ms, bs, inMainSub, inBaselineSub)...)
		}
	}
	return rows
}

func compareQuestion(id, subID string, main, baseline Question, inMain, inBaseline bool) []Row {
	rows := make([]Row, 0, len(Tracked))
	for _, p := range Tracked {
		row := Row{
			QuestionID: id,
			SubFieldID: subID,
			Property:   p,
			Label:      p.Label(),
			InMain:     inMain,
			InBaseline: inBaseline,
		}
		if inMain {
			row.Main = main.Value(p)
		}
		if inBaseline {
			row.Baseline = baseline.Value(p)
		}

		switch {
		case !inBaseline:
			row.Status = delta.StatusOnlyLeft
		case !inMain:
			row.Status = delta.StatusOnlyRight
		case cmp.Equal(row.Main, row.Baseline):
			row.Status = delta.StatusMatch
		default:
			row.Status = delta.StatusDifferent
		}
		rows = append(rows, row)
	}
	return rows
}

// Differences returns the rows worth showing: matches are dropped, and so is
// any row where both sides hold an empty array.
func Differences(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if row.Status == delta.StatusMatch {
			continue
		}
		if isEmptyArray(row.Main) && isEmptyArray(row.Baseline) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func isEmptyArray(v interface{}) bool {
	a, ok := v.([]interface{})
	return ok && len(a) == 0
}

// ExistenceRow records whether a question id is present in each template.
type ExistenceRow struct {
	ID         string `json:"id"`
	InMain     bool   `json:"inMain"`
	InBaseline bool   `json:"inBaseline"`
	InBoth     bool   `json:"inBoth"`
}

// Existence returns one row per question id found in either set, sorted by id.
func Existence(main, baseline Set) []ExistenceRow {
	ids := unionIDs(main, baseline)
	rows := make([]ExistenceRow, 0, len(ids))
	for _, id := range ids {
		_, inMain := main[id]
		_, inBaseline := baseline[id]
		rows = append(rows, ExistenceRow{
			ID:         id,
			InMain:     inMain,
			InBaseline: inBaseline,
			InBoth:     inMain && inBaseline,
		})
	}
	return rows
}

func unionIDs(a, b Set) []string {
	ids := sets.New[string]()
	for id := range a {
		ids.Insert(id)
	}
	for id := range b {
		ids.Insert(id)
	}
	if ids.Len() == 0 {
		return nil
	}
	return sets.List(ids)
}
