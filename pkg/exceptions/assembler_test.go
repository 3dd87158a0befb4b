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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

func TestAssembleWithPlatformMap(t *testing.T) {
	resp := settings.NewFieldMapResponse(map[string]conflict.Method{
		"createdAt":   conflict.AlwaysCoursedog,
		"title":       conflict.ResolveAsCoursedog,
		"description": conflict.ResolveAsCoursedog,
	})
	cfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{
			group(conflict.AlwaysInstitution, "title", "credits"),
			group(conflict.ResolveAsInstitution, "credits"),
		},
	}

	got := Assemble(testTable(), "sections", resp, cfg)
	assert.False(t, got.Degraded)
	assert.Equal(t, FieldMap{
		"createdAt":   conflict.AlwaysCoursedog,
		"title":       conflict.AlwaysInstitution,
		"description": conflict.ResolveAsCoursedog,
		// last group wins during assembly
		"credits": conflict.ResolveAsInstitution,
	}, got.Map)

	// the response is not modified
	assert.Equal(t, conflict.ResolveAsCoursedog, resp.Data["title"])
}

func TestAssembleOverrideLaw(t *testing.T) {
	resp := settings.NewFieldMapResponse(map[string]conflict.Method{
		"createdAt": conflict.AlwaysCoursedog,
		"title":     conflict.ResolveAsCoursedog,
	})
	for _, method := range []conflict.Method{conflict.AlwaysInstitution, conflict.ResolveAsInstitution, "brandNewMethod"} {
		cfg := &settings.EntitySettings{
			FieldExceptions: []settings.ExceptionGroup{group(method, "createdAt", "title")},
		}
		got := Assemble(testTable(), "sections", resp, cfg)
		assert.Equal(t, method, got.Map["createdAt"])
		assert.Equal(t, method, got.Map["title"])
	}
}

func TestAssembleDegraded(t *testing.T) {
	cfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{
			group(conflict.ResolveAsInstitution, "createdAt", "title", "relationships.instructors"),
		},
	}

	for name, resp := range map[string]*settings.FieldMapResponse{
		"nil":    nil,
		"failed": settings.FailedFieldMapResponse(),
		"empty":  settings.NewFieldMapResponse(nil),
	} {
		t.Run(name, func(t *testing.T) {
			got := Assemble(testTable(), "sections", resp, cfg)
			assert.True(t, got.Degraded)
			assert.Equal(t, FieldMap{
				"createdAt":                 conflict.AlwaysCoursedog,
				"title":                     conflict.ResolveAsInstitution,
				"relationships.instructors": conflict.AlwaysInstitution,
			}, got.Map)
		})
	}
}

func TestAssembleDegradedNeverInventsPaths(t *testing.T) {
	got := Assemble(DefaultGlobalTable(), "sections", nil, nil)
	assert.True(t, got.Degraded)
	assert.Empty(t, got.Map)
}

func TestAssembleDeterminism(t *testing.T) {
	resp := settings.NewFieldMapResponse(map[string]conflict.Method{"a": "x", "b": "y"})
	cfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{group("z", "a", "c")},
	}
	first := Assemble(testTable(), "sections", resp, cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assemble(testTable(), "sections", resp, cfg))
	}
}

func TestBuildUnifiedFieldList(t *testing.T) {
	mainResp := settings.NewFieldMapResponse(map[string]conflict.Method{
		"createdAt": conflict.AlwaysCoursedog,
		"title":     conflict.ResolveAsCoursedog,
	})
	baselineResp := settings.NewFieldMapResponse(map[string]conflict.Method{
		"title":   conflict.ResolveAsCoursedog,
		"credits": conflict.ResolveAsCoursedog,
	})
	mainCfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{group(conflict.AlwaysInstitution, "customFields.room")},
	}
	baselineCfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{group(conflict.AlwaysInstitution, "times.$.timeBlockId")},
	}

	got := BuildUnifiedFieldList(mainResp, baselineResp, mainCfg, baselineCfg)
	assert.Equal(t, []string{
		"createdAt",
		"credits",
		"customFields.room",
		"times.$.timeBlockId",
		"title",
	}, sets.List(got))

	// Union completeness.
	for path := range mainResp.Data {
		assert.True(t, got.Has(path))
	}
	for path := range baselineResp.Data {
		assert.True(t, got.Has(path))
	}
}

func TestBuildUnifiedFieldListWithFailedMaps(t *testing.T) {
	mainCfg := &settings.EntitySettings{
		FieldExceptions: []settings.ExceptionGroup{group(conflict.AlwaysInstitution, "customFields.room")},
	}
	got := BuildUnifiedFieldList(settings.FailedFieldMapResponse(), nil, mainCfg, nil)
	assert.Equal(t, []string{"customFields.room"}, sets.List(got))

	assert.Equal(t, 0, BuildUnifiedFieldList(nil, nil, nil, nil).Len())
}
