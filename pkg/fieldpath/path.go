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

package fieldpath

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Wildcard is the segment standing for "any array index".
	Wildcard = "$"
	// Separator joins segments in the serialized form of a path.
	Separator = "."
)

// Path is an ordered list of segments addressing a field inside an entity
// document, e.g. times.$.timeBlockId.
type Path []string

// New builds a path from the given segments.
func New(segments ...string) Path {
	p := make(Path, len(segments))
	copy(p, segments)
	return p
}

// String returns the serialized form of the path (segments joined by ".").
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Equal reports whether both paths have exactly the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Prefixes returns the proper prefixes of the path, longest first. The
// path itself is not included.
//
// e.g a.b.c -> [a.b, a]
func (p Path) Prefixes() []Path {
	if len(p) < 2 {
		return nil
	}
	prefixes := make([]Path, 0, len(p)-1)
	for i := len(p) - 1; i > 0; i-- {
		prefixes = append(prefixes, p[:i:i])
	}
	return prefixes
}

// HasWildcard reports whether any segment of the path is the wildcard.
func (p Path) HasWildcard() bool {
	for _, seg := range p {
		if seg == Wildcard {
			return true
		}
	}
	return false
}

// Matches reports whether the concrete path is matched by p used as a
// pattern. Segments must be equal position by position, except wildcard
// segments of the pattern which match any segment.
func (p Path) Matches(concrete Path) bool {
	if len(p) != len(concrete) {
		return false
	}
	for i := range p {
		if p[i] == Wildcard || p[i] == concrete[i] {
			continue
		}
		return false
	}
	return true
}

// Generalize returns a copy of the path where every array index segment is
// replaced by the wildcard.
func (p Path) Generalize() Path {
	out := make(Path, len(p))
	for i, seg := range p {
		if IsIndex(seg) {
			out[i] = Wildcard
			continue
		}
		out[i] = seg
	}
	return out
}

// IsIndex reports whether seg is an array index: either the wildcard or a
// non negative integer.
func IsIndex(seg string) bool {
	if seg == Wildcard {
		return true
	}
	if seg == "" {
		return false
	}
	_, err := strconv.ParseUint(seg, 10, 64)
	return err == nil
}

// FromValue converts a raw JSON value into a path. Strings are parsed, and
// arrays are read as a list of segments (strings or numbers). Any other
// shape, or a path with empty segments, returns false.
func FromValue(v interface{}) (Path, bool) {
	switch t := v.(type) {
	case string:
		p, err := Parse(t)
		if err != nil {
			return nil, false
		}
		return p, true
	case []interface{}:
		if len(t) == 0 {
			return nil, false
		}
		p := make(Path, 0, len(t))
		for _, raw := range t {
			switch seg := raw.(type) {
			case string:
				if seg == "" {
					return nil, false
				}
				p = append(p, seg)
			case int64:
				p = append(p, strconv.FormatInt(seg, 10))
			case float64:
				p = append(p, strconv.FormatFloat(seg, 'f', -1, 64))
			default:
				return nil, false
			}
		}
		return p, true
	case []string:
		if len(t) == 0 {
			return nil, false
		}
		for _, seg := range t {
			if seg == "" {
				return nil, false
			}
		}
		return New(t...), true
	}
	return nil, false
}

// MustParse is like Parse but panics on error. Meant for static tables and
// tests.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("fieldpath: %v", err))
	}
	return p
}
