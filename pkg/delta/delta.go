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

package delta

import (
	"encoding/json"
	"reflect"
	"slices"
	"strconv"
)

// Status is the outcome of comparing one path.
type Status string

const (
	StatusMatch     Status = "match"
	StatusOnlyLeft  Status = "onlyLeft"
	StatusOnlyRight Status = "onlyRight"
	StatusDifferent Status = "different"
	// StatusTruncated marks a subtree that was not walked because it is
	// deeper than the configured limit.
	StatusTruncated Status = "truncated"
)

// RootPath is the path reported for differences found at the top of the
// compared values when no base path is given.
const RootPath = "root"

// DefaultMaxDepth bounds the recursion when no WithMaxDepth option is given.
const DefaultMaxDepth = 64

// Row represents the comparison of a single path between two values.
type Row struct {
	// Path is the full path to the compared field (e.g. "filters.0.field")
	Path string `json:"path"`
	// Left is the value on the left side, nil when absent
	Left interface{} `json:"left,omitempty"`
	// Right is the value on the right side, nil when absent
	Right interface{} `json:"right,omitempty"`
	// Status is the comparison outcome
	Status Status `json:"status"`
}

// Option configures Compare.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth bounds how many object levels Compare walks. Objects found
// below the limit are reported as a single truncated row.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// Compare takes two JSON-like values and returns the per-path comparison of
// their structures. It has no knowledge of any schema. The comparison:
//
// - reports a kind mismatch (e.g. string vs number) as one different row
// - reports a value present on one side only as onlyLeft/onlyRight without
// expanding it further
// - walks objects and arrays on the union of their keys, array indexes
// being keys like any other
// - reports leaf scalars as match or different
//
// Two nulls produce no row. Keys are visited in a stable order so the output
// is deterministic, but callers rendering rows should still use SortRows.
func Compare(left, right interface{}, basePath string, opts ...Option) []Row {
	o := &options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}

	w := &walker{maxDepth: o.maxDepth}
	w.walkCompare(left, right, basePath, 0)
	return w.rows
}

type walker struct {
	maxDepth int
	rows     []Row
}

func (w *walker) add(path string, left, right interface{}, status Status) {
	if path == "" {
		path = RootPath
	}
	w.rows = append(w.rows, Row{Path: path, Left: left, Right: right, Status: status})
}

// walkCompare recursively compares left and right values, recording a row
// for every leaf and for every branch that exists on one side only.
func (w *walker) walkCompare(left, right interface{}, path string, depth int) {
	if kindOf(left) != kindOf(right) {
		w.add(path, left, right, StatusDifferent)
		return
	}

	switch {
	case left == nil && right == nil:
		return
	case left == nil:
		w.add(path, nil, right, StatusOnlyRight)
		return
	case right == nil:
		w.add(path, left, nil, StatusOnlyLeft)
		return
	}

	if kindOf(left) != kindObject {
		if jsonEqual(left, right) {
			w.add(path, left, right, StatusMatch)
		} else {
			w.add(path, left, right, StatusDifferent)
		}
		return
	}

	if depth >= w.maxDepth {
		w.add(path, left, right, StatusTruncated)
		return
	}
	w.walkObject(entries(left), entries(right), path, depth)
}

// walkObject compares two objects on the union of their keys:
//
// - key on one side only: records a row and stops there
// - key on both sides: recursively compares values
func (w *walker) walkObject(left, right map[string]interface{}, path string, depth int) {
	keys := make([]string, 0, len(left)+len(right))
	for k := range left {
		keys = append(keys, k)
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, CompareSegments)

	for _, k := range keys {
		newPath := k
		if path != "" {
			newPath = path + "." + k
		}

		leftVal, inLeft := left[k]
		rightVal, inRight := right[k]
		switch {
		case inLeft && !inRight:
			w.add(newPath, leftVal, nil, StatusOnlyLeft)
		case !inLeft && inRight:
			w.add(newPath, nil, rightVal, StatusOnlyRight)
		default:
			w.walkCompare(leftVal, rightVal, newPath, depth+1)
		}
	}
}

const (
	kindObject  = "object"
	kindBoolean = "boolean"
	kindNumber  = "number"
	kindString  = "string"
)

// kindOf classifies a value the way JSON consumers usually do: null, maps
// and arrays are all objects.
func kindOf(v interface{}) string {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}:
		return kindObject
	case bool:
		return kindBoolean
	case string:
		return kindString
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return kindNumber
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		return kindObject
	}
	return rv.Kind().String()
}

// entries returns an object view of a map or an array; arrays are keyed by
// their indexes.
func entries(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return t
	case []interface{}:
		out := make(map[string]interface{}, len(t))
		for i, item := range t {
			out[strconv.Itoa(i)] = item
		}
		return out
	}

	// Other Go shapes are compared through their JSON form.
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]interface{}{}
	}
	switch t := decoded.(type) {
	case map[string]interface{}, []interface{}:
		return entries(t)
	}
	return map[string]interface{}{}
}

// jsonEqual compares values by their JSON serialization so that structurally
// equal values compare equal regardless of their Go types.
func jsonEqual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return string(ja) == string(jb)
}
