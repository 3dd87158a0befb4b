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
	"strings"

	"github.com/gobuffalo/flect"
)

// defaultAliases maps an alias to its canonical key.
//
// TODO: the platform treats two key pairs as aliases in attribute mappings
// and only campus/campuses has been identified. Add the second pair here
// once it is known; config aliases cover it until then.
var defaultAliases = map[string]string{
	"campuses": "campus",
}

// DefaultAliases returns a copy of the built-in alias pairs.
func DefaultAliases() map[string]string {
	out := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}

// Aliases resolves entity keys that name the same thing under different
// spellings (e.g. "campus" and "campuses") to one canonical key. Aliases
// match regardless of case: configuration loaders lowercase map keys, so the
// alias side of a pair cannot be relied on to keep its case.
type Aliases struct {
	canonical     map[string]string
	pluralFolding bool
}

// NewAliases returns the built-in aliases extended with extra (alias ->
// canonical). Extra pairs take precedence. When pluralFolding is set, keys
// without an explicit alias are folded to their singular form.
func NewAliases(extra map[string]string, pluralFolding bool) *Aliases {
	a := &Aliases{
		canonical:     map[string]string{},
		pluralFolding: pluralFolding,
	}
	for alias, canonical := range DefaultAliases() {
		a.canonical[strings.ToLower(alias)] = canonical
	}
	for alias, canonical := range extra {
		alias = strings.ToLower(strings.TrimSpace(alias))
		canonical = strings.TrimSpace(canonical)
		if alias == "" || canonical == "" || strings.EqualFold(alias, canonical) {
			continue
		}
		a.canonical[alias] = canonical
	}
	return a
}

// Canonical returns the canonical form of key. Unknown keys are returned
// unchanged unless plural folding is enabled.
func (a *Aliases) Canonical(key string) string {
	if a == nil {
		return key
	}
	if c, ok := a.canonical[strings.ToLower(key)]; ok {
		return c
	}
	if a.pluralFolding {
		if s := flect.Singularize(key); s != "" {
			return s
		}
	}
	return key
}

// Equivalent reports whether two keys resolve to the same canonical key,
// ignoring case.
func (a *Aliases) Equivalent(x, y string) bool {
	return strings.EqualFold(a.Canonical(x), a.Canonical(y))
}
