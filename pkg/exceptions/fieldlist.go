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
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/schooldiff/schooldiff/pkg/settings"
)

// BuildUnifiedFieldList returns the comparison domain of one entity type:
// the union of the paths returned by the platform for either school and of
// every path configured by either school. Failed or empty responses simply
// contribute nothing; a path is never dropped because one side lacks it.
//
// Use sets.List on the result to get a sorted slice.
func BuildUnifiedFieldList(
	mainResp, baselineResp *settings.FieldMapResponse,
	mainCfg, baselineCfg *settings.EntitySettings,
) sets.Set[string] {
	fields := sets.New[string]()
	for _, resp := range []*settings.FieldMapResponse{mainResp, baselineResp} {
		if resp == nil {
			continue
		}
		for path := range resp.Data {
			fields.Insert(path)
		}
	}
	fields.Insert(mainCfg.ConfiguredPaths()...)
	fields.Insert(baselineCfg.ConfiguredPaths()...)
	return fields
}
