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

// Package conflict holds the vocabulary shared by the merge settings readers
// and the exception resolution code.
package conflict

// Method is a conflict handling method as reported by the platform. It
// decides which side wins when a field differs between the platform and the
// institution data during a sync.
//
// The set of values is open: the platform may introduce new methods at any
// time, so a Method is never validated against the constants below.
type Method string

const (
	// AlwaysCoursedog means the platform value always wins.
	AlwaysCoursedog Method = "alwaysCoursedog"
	// AlwaysInstitution means the institution value always wins.
	AlwaysInstitution Method = "alwaysInstitution"
	// ResolveAsCoursedog resolves conflicts in favour of the platform.
	ResolveAsCoursedog Method = "resolveAsCoursedog"
	// ResolveAsInstitution resolves conflicts in favour of the institution.
	ResolveAsInstitution Method = "resolveAsInstitution"

	// DefaultMethod is used when a school does not configure a default.
	DefaultMethod = ResolveAsCoursedog
)

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// Layer identifies which precedence layer produced a resolved method.
type Layer string

const (
	// LayerGlobal is the hardcoded exception table. It cannot be overridden.
	LayerGlobal Layer = "global"
	// LayerConfigured is a field exception configured in the school's merge
	// settings.
	LayerConfigured Layer = "configured"
	// LayerDefault is the entity (or built-in) default method.
	LayerDefault Layer = "default"
)
