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
)

// Formatters is the typed view of a school's formatter flags. A formatter
// flagged true means the live sync pipeline transforms that entity.
type Formatters struct {
	// Error is set when the payload was an error object.
	Error string
	// Enabled lists, sorted, the keys whose value is strictly true.
	Enabled []string
	// Present is false when no payload was available at all.
	Present bool
}

// ParseFormatters reads a raw formatters payload. Values other than the
// boolean true (including the string "true") do not enable an entity.
func ParseFormatters(raw interface{}) Formatters {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return Formatters{}
	}
	f := Formatters{Present: true}
	if errValue, hasError := obj["error"]; hasError {
		if msg, ok := errValue.(string); ok && msg != "" {
			f.Error = msg
		} else {
			f.Error = "formatters fetch failed"
		}
		return f
	}
	for key, value := range obj {
		if enabled, ok := value.(bool); ok && enabled {
			f.Enabled = append(f.Enabled, key)
		}
	}
	slices.Sort(f.Enabled)
	return f
}

// Valid reports whether the formatters can be trusted for entity selection:
// a non error object with at least one enabled key.
func (f Formatters) Valid() bool {
	return f.Present && f.Error == "" && len(f.Enabled) > 0
}
