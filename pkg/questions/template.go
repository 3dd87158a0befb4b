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

package questions

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// DefaultMaxDepth bounds the walk of a program template children tree.
const DefaultMaxDepth = 32

// FromQuestions extracts the questions of a course or section template. The
// questions are read from the template's "questions" key which may be an
// object keyed by id, or an array of objects carrying an "id". A nil or
// malformed template yields an empty set.
func FromQuestions(template map[string]interface{}) Set {
	raw, found, err := unstructured.NestedFieldNoCopy(template, "questions")
	if err != nil || !found {
		return Set{}
	}
	return setFromValue(raw)
}

// Flattened is the result of flattening a program template.
type Flattened struct {
	Questions Set
	// Truncated is set when part of the tree was deeper than the limit and
	// was not visited.
	Truncated bool
}

// FromChildren flattens the recursive "children" tree of a program template
// into its leaves. A leaf is a node with an id and no children; it keeps its
// own attributes (id, config, ...) and becomes a question. When an id is seen
// twice the first leaf in tree order wins.
func FromChildren(template map[string]interface{}, maxDepth int) Flattened {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	f := &flattener{maxDepth: maxDepth, out: Set{}}
	if template != nil {
		f.walk(template["children"], 0)
	}
	return Flattened{Questions: f.out, Truncated: f.truncated}
}

type flattener struct {
	maxDepth  int
	truncated bool
	out       Set
}

func (f *flattener) walk(children interface{}, depth int) {
	nodes, ok := children.([]interface{})
	if !ok {
		return
	}
	if depth >= f.maxDepth {
		if len(nodes) > 0 {
			f.truncated = true
		}
		return
	}
	for _, n := range nodes {
		node, ok := n.(map[string]interface{})
		if !ok {
			continue
		}
		if sub, ok := node["children"].([]interface{}); ok && len(sub) > 0 {
			f.walk(sub, depth+1)
			continue
		}
		id := idOf(node)
		if id == "" {
			continue
		}
		if _, seen := f.out[id]; seen {
			continue
		}
		q := make(Question, len(node))
		for k, v := range node {
			if k == "children" {
				continue
			}
			q[k] = v
		}
		f.out[id] = q
	}
}

func setFromValue(raw interface{}) Set {
	out := Set{}
	switch t := raw.(type) {
	case map[string]interface{}:
		for id, v := range t {
			if q, ok := v.(map[string]interface{}); ok {
				out[id] = Question(q)
			}
		}
	case []interface{}:
		for _, v := range t {
			q, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			id := idOf(q)
			if id == "" {
				continue
			}
			if _, seen := out[id]; !seen {
				out[id] = Question(q)
			}
		}
	}
	return out
}

func idOf(node map[string]interface{}) string {
	switch id := node["id"].(type) {
	case string:
		return id
	case float64, int64, int:
		return fmt.Sprint(id)
	}
	return ""
}
