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

package settings

import (
	"slices"

	"golang.org/x/exp/maps"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/fieldpath"
)

// MergeSettings is the raw merge settings document of one school, keyed by
// entity type. A nil MergeSettings means the fetch failed or the payload was
// unusable.
type MergeSettings map[string]interface{}

// NewMergeSettings wraps a raw JSON value. Anything that is not an object, or
// an object carrying an "error" key, yields nil.
func NewMergeSettings(raw interface{}) MergeSettings {
	obj, ok := raw.(map[string]interface{})
	if !ok || isErrorPayload(obj) {
		return nil
	}
	return MergeSettings(obj)
}

// Available reports whether the merge settings were fetched at all.
func (m MergeSettings) Available() bool {
	return m != nil
}

// EntityTypes returns, sorted, every key whose value is an object.
func (m MergeSettings) EntityTypes() []string {
	var out []string
	for key, value := range m {
		if _, ok := value.(map[string]interface{}); ok {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

// Entity returns the settings of one entity type. The second return value
// is false when the entity is absent or is not an object.
func (m MergeSettings) Entity(entityType string) (*EntitySettings, bool) {
	if m == nil {
		return nil, false
	}
	raw, ok := m[entityType].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return parseEntitySettings(raw), true
}

// EntitySettings is the typed view of one entity's merge settings.
type EntitySettings struct {
	Enabled                bool
	Type                   string
	ConflictHandlingMethod conflict.Method
	FieldExceptions        []ExceptionGroup
	StepsToExecute         map[string]interface{}
	// Raw is the untouched settings object, used for generic diffs.
	Raw map[string]interface{}
}

// ExceptionGroup is a set of fields sharing one configured conflict
// handling method.
type ExceptionGroup struct {
	ConflictHandlingMethod conflict.Method
	Fields                 []Field
}

// Field is one configured field of an ExceptionGroup.
type Field struct {
	Path  fieldpath.Path
	Label string
}

func parseEntitySettings(raw map[string]interface{}) *EntitySettings {
	es := &EntitySettings{Raw: raw}

	// Type mismatches leave the zero value in place.
	es.Enabled, _, _ = unstructured.NestedBool(raw, "enabled")
	es.Type, _, _ = unstructured.NestedString(raw, "type")
	method, _, _ := unstructured.NestedString(raw, "conflictHandlingMethod")
	es.ConflictHandlingMethod = conflict.Method(method)

	if steps, found, _ := unstructured.NestedFieldNoCopy(raw, "stepsToExecute"); found {
		if m, ok := steps.(map[string]interface{}); ok {
			es.StepsToExecute = m
		}
	}

	groups, found, _ := unstructured.NestedFieldNoCopy(raw, "fieldExceptions")
	if !found {
		return es
	}
	list, ok := groups.([]interface{})
	if !ok {
		return es
	}
	for _, item := range list {
		group, ok := parseExceptionGroup(item)
		if !ok {
			continue
		}
		es.FieldExceptions = append(es.FieldExceptions, group)
	}
	return es
}

// parseExceptionGroup reads one configured group. Groups without a method or
// without any valid field are dropped; individual malformed fields are
// skipped.
func parseExceptionGroup(item interface{}) (ExceptionGroup, bool) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return ExceptionGroup{}, false
	}
	method, _, _ := unstructured.NestedString(obj, "conflictHandlingMethod")
	if method == "" {
		return ExceptionGroup{}, false
	}
	rawFields, found, _ := unstructured.NestedFieldNoCopy(obj, "fields")
	if !found {
		return ExceptionGroup{}, false
	}
	fieldList, ok := rawFields.([]interface{})
	if !ok {
		return ExceptionGroup{}, false
	}

	group := ExceptionGroup{ConflictHandlingMethod: conflict.Method(method)}
	for _, rawField := range fieldList {
		fieldObj, ok := rawField.(map[string]interface{})
		if !ok {
			continue
		}
		path, ok := fieldpath.FromValue(fieldObj["path"])
		if !ok {
			continue
		}
		label, _, _ := unstructured.NestedString(fieldObj, "label")
		group.Fields = append(group.Fields, Field{Path: path, Label: label})
	}
	if len(group.Fields) == 0 {
		return ExceptionGroup{}, false
	}
	return group, true
}

// ConfiguredPaths returns the serialized paths of every configured field in
// processing order. A path configured more than once appears more than once.
func (es *EntitySettings) ConfiguredPaths() []string {
	if es == nil {
		return nil
	}
	var out []string
	for _, group := range es.FieldExceptions {
		for _, field := range group.Fields {
			out = append(out, field.Path.String())
		}
	}
	return out
}

// Labels maps serialized configured paths to their human label. When a path
// has several labels the last non empty one wins.
func (es *EntitySettings) Labels() map[string]string {
	labels := map[string]string{}
	if es == nil {
		return labels
	}
	for _, group := range es.FieldExceptions {
		for _, field := range group.Fields {
			if field.Label != "" {
				labels[field.Path.String()] = field.Label
			}
		}
	}
	return labels
}

// Duplicate describes a path configured in more than one group of the same
// entity. Methods lists the configured methods in processing order; the last
// one is the one map assembly keeps.
type Duplicate struct {
	Path    string
	Methods []conflict.Method
}

// DuplicatePaths returns, sorted by path, every configured path that appears
// in more than one group.
func (es *EntitySettings) DuplicatePaths() []Duplicate {
	if es == nil {
		return nil
	}
	seen := map[string][]conflict.Method{}
	for _, group := range es.FieldExceptions {
		for _, field := range group.Fields {
			key := field.Path.String()
			seen[key] = append(seen[key], group.ConflictHandlingMethod)
		}
	}

	paths := maps.Keys(seen)
	slices.Sort(paths)

	var out []Duplicate
	for _, path := range paths {
		if methods := seen[path]; len(methods) > 1 {
			out = append(out, Duplicate{Path: path, Methods: methods})
		}
	}
	return out
}

func isErrorPayload(obj map[string]interface{}) bool {
	_, hasError := obj["error"]
	return hasError
}
