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

package exceptions

import "github.com/schooldiff/schooldiff/pkg/conflict"

// generalExceptions apply to every entity type. They are bookkeeping fields
// written by the sync engine itself.
var generalExceptions = FieldMap{
	"_id":            conflict.AlwaysCoursedog,
	"id":             conflict.AlwaysCoursedog,
	"createdAt":      conflict.AlwaysCoursedog,
	"createdBy":      conflict.AlwaysCoursedog,
	"lastEditedAt":   conflict.AlwaysCoursedog,
	"lastEditedBy":   conflict.AlwaysCoursedog,
	"lastSyncedAt":   conflict.AlwaysCoursedog,
	"lastSyncStatus": conflict.AlwaysCoursedog,
	"lastSyncErrors": conflict.AlwaysCoursedog,
	"relationships":  conflict.AlwaysCoursedog,
	"sisId":          conflict.AlwaysInstitution,
}

// entityExceptions are entity specific additions. An entry with the same key
// as a general one overrides it for that entity.
var entityExceptions = map[string]FieldMap{
	"sections": {
		"customFields.secTopicCode": conflict.AlwaysInstitution,
		"times.$.timeBlockId":       conflict.AlwaysCoursedog,
		"sectionId":                 conflict.AlwaysInstitution,
	},
	"courses": {
		"courseGroupId":      conflict.AlwaysCoursedog,
		"effectiveStartDate": conflict.AlwaysInstitution,
		"effectiveEndDate":   conflict.AlwaysInstitution,
	},
	"programs": {
		"programGroupId":  conflict.AlwaysCoursedog,
		"requirementList": conflict.AlwaysCoursedog,
	},
	"terms": {
		"code": conflict.AlwaysInstitution,
	},
	"rooms": {
		"buildingId":    conflict.AlwaysInstitution,
		"relationships": conflict.AlwaysInstitution,
	},
}
