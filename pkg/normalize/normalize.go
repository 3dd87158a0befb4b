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

package normalize

import (
	"fmt"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"
)

// identityKeys are tried, in order, to key the elements of an array of
// objects. Keying arrays makes a reordered array compare equal.
var identityKeys = []string{"id", "key", "name"}

// Normalized is a payload ready for structural comparison.
type Normalized struct {
	Value interface{}
	// Merged lists, sorted, the canonical keys that more than one top level
	// key resolved to. Only one of the colliding values is kept.
	Merged []string
}

// Document prepares an attributeMappings or integrationFilters payload for
// comparison:
//
//   - top level keys are replaced by their canonical alias
//   - arrays whose elements are all objects sharing a unique identity key
//     (id, key or name) become objects keyed by that identity
//
// The input is never modified. When two top level keys collide, the value of
// the key already in canonical form wins, otherwise the smallest key wins.
func Document(v interface{}, aliases *Aliases) Normalized {
	top, ok := v.(map[string]interface{})
	if !ok {
		return Normalized{Value: normalizeValue(v)}
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[string]interface{}, len(top))
	owner := map[string]string{}
	merged := sets.New[string]()
	for _, k := range keys {
		canonical := aliases.Canonical(k)
		if prev, taken := owner[canonical]; taken {
			merged.Insert(canonical)
			if prev == canonical || k != canonical {
				continue
			}
		}
		owner[canonical] = k
		out[canonical] = normalizeValue(top[k])
	}

	n := Normalized{Value: out}
	if merged.Len() > 0 {
		n.Merged = sets.List(merged)
	}
	return n
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = normalizeValue(item)
		}
		return out
	case []interface{}:
		if keyed, ok := keyByIdentity(t); ok {
			return keyed
		}
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}

func keyByIdentity(items []interface{}) (map[string]interface{}, bool) {
	if len(items) == 0 {
		return nil, false
	}
	for _, field := range identityKeys {
		out := make(map[string]interface{}, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, false
			}
			id := identity(obj[field])
			if id == "" {
				break
			}
			if _, dup := out[id]; dup {
				break
			}
			out[id] = normalizeValue(obj)
		}
		if len(out) == len(items) {
			return out, true
		}
	}
	return nil, false
}

func identity(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, int64, int:
		return fmt.Sprint(t)
	}
	return ""
}
