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
	"slices"
	"strconv"
	"strings"
)

// SortRows sorts rows by path in place. Paths are compared segment by
// segment, numeric segments numerically, so "items.2" sorts before
// "items.10".
func SortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return ComparePaths(a.Path, b.Path)
	})
}

// ComparePaths orders two dotted paths segment by segment.
func ComparePaths(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := CompareSegments(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

// CompareSegments orders two path segments. Integers sort numerically and
// before any other segment.
func CompareSegments(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
		// "01" and "1"
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Differences returns the rows that are not matches. The input is not
// modified.
func Differences(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if row.Status != StatusMatch {
			out = append(out, row)
		}
	}
	return out
}
