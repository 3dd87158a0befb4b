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

package generator

import (
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/snapshot"
)

// SchoolOption is a functional option for School
type SchoolOption func(payloads map[snapshot.Payload]interface{})

// NewSchool creates a new school snapshot with the given name and options
func NewSchool(name string, opts ...SchoolOption) *snapshot.School {
	payloads := map[snapshot.Payload]interface{}{}
	for _, opt := range opts {
		opt(payloads)
	}
	return snapshot.New(name, payloads)
}

// ExceptionGroup returns a merge settings field exception group applying
// method to paths.
func ExceptionGroup(method conflict.Method, paths ...string) map[string]interface{} {
	fields := make([]interface{}, 0, len(paths))
	for _, path := range paths {
		fields = append(fields, map[string]interface{}{"path": path})
	}
	return map[string]interface{}{
		"conflictHandlingMethod": string(method),
		"fields":                 fields,
	}
}

// WithEntity adds an entity to the merge settings. An empty method leaves the
// entity without a default conflict handling method.
func WithEntity(entity string, enabled bool, method conflict.Method, groups ...map[string]interface{}) SchoolOption {
	return func(payloads map[snapshot.Payload]interface{}) {
		settings := object(payloads, snapshot.PayloadMergeSettings)
		es := map[string]interface{}{
			"enabled": enabled,
			"type":    "merge",
		}
		if method != "" {
			es["conflictHandlingMethod"] = string(method)
		}
		if len(groups) > 0 {
			items := make([]interface{}, 0, len(groups))
			for _, group := range groups {
				items = append(items, group)
			}
			es["fieldExceptions"] = items
		}
		settings[entity] = es
	}
}

// WithFormatters flags the given entities as formatted.
func WithFormatters(entities ...string) SchoolOption {
	return func(payloads map[snapshot.Payload]interface{}) {
		formatters := object(payloads, snapshot.PayloadFormatters)
		for _, entity := range entities {
			formatters[entity] = true
		}
	}
}

// WithFieldMap records a successful field exception map response.
func WithFieldMap(entity string, data map[string]conflict.Method) SchoolOption {
	return func(payloads map[snapshot.Payload]interface{}) {
		raw := make(map[string]interface{}, len(data))
		for path, method := range data {
			raw[path] = string(method)
		}
		status := "success"
		if len(raw) == 0 {
			status = "empty-response"
		}
		object(payloads, snapshot.PayloadFieldExceptionMaps)[entity] = map[string]interface{}{
			"status":       status,
			"data":         raw,
			"isEmpty":      len(raw) == 0,
			"apiAvailable": true,
		}
	}
}

// WithFailedFieldMap records a failed field exception map request.
func WithFailedFieldMap(entity string) SchoolOption {
	return func(payloads map[snapshot.Payload]interface{}) {
		object(payloads, snapshot.PayloadFieldExceptionMaps)[entity] = map[string]interface{}{
			"status":       "api-failed",
			"isEmpty":      true,
			"apiAvailable": false,
		}
	}
}

// WithPayload sets a raw payload.
func WithPayload(p snapshot.Payload, v interface{}) SchoolOption {
	return func(payloads map[snapshot.Payload]interface{}) {
		payloads[p] = v
	}
}

// WithFailedPayload records a payload whose fetch failed.
func WithFailedPayload(p snapshot.Payload, message string) SchoolOption {
	return WithPayload(p, map[string]interface{}{"error": message})
}

func object(payloads map[snapshot.Payload]interface{}, p snapshot.Payload) map[string]interface{} {
	if obj, ok := payloads[p].(map[string]interface{}); ok {
		return obj
	}
	obj := map[string]interface{}{}
	payloads[p] = obj
	return obj
}
