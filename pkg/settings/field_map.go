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
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/schooldiff/schooldiff/pkg/conflict"
)

// FieldMapStatus is the outcome of a field exception map request.
type FieldMapStatus string

const (
	FieldMapStatusSuccess       FieldMapStatus = "success"
	FieldMapStatusEmptyResponse FieldMapStatus = "empty-response"
	FieldMapStatusAPIFailed     FieldMapStatus = "api-failed"
)

// FieldMapResponse is the result of asking the platform for the complete
// field exception map of one entity.
type FieldMapResponse struct {
	Status       FieldMapStatus             `json:"status"`
	Data         map[string]conflict.Method `json:"data"`
	IsEmpty      bool                       `json:"isEmpty"`
	APIAvailable bool                       `json:"apiAvailable"`
}

// Usable reports whether the response can serve as the base layer of a
// field exception map.
func (r *FieldMapResponse) Usable() bool {
	return r != nil && r.Status == FieldMapStatusSuccess && len(r.Data) > 0
}

// Failed reports whether the request itself failed, as opposed to
// succeeding with no data.
func (r *FieldMapResponse) Failed() bool {
	return r == nil || r.Status == FieldMapStatusAPIFailed
}

// ParseFieldMapResponse reads a raw response envelope. It returns nil when
// raw is not an object. Non string values of "data" are ignored. When the
// status is missing it is inferred from the data.
func ParseFieldMapResponse(raw interface{}) *FieldMapResponse {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if _, hasError := obj["error"]; hasError {
		return &FieldMapResponse{Status: FieldMapStatusAPIFailed}
	}

	resp := &FieldMapResponse{Data: map[string]conflict.Method{}}
	if data, found, _ := unstructured.NestedFieldNoCopy(obj, "data"); found {
		if m, ok := data.(map[string]interface{}); ok {
			for path, value := range m {
				if method, ok := value.(string); ok && path != "" {
					resp.Data[path] = conflict.Method(method)
				}
			}
		}
	}

	status, _, _ := unstructured.NestedString(obj, "status")
	switch FieldMapStatus(status) {
	case FieldMapStatusSuccess, FieldMapStatusEmptyResponse, FieldMapStatusAPIFailed:
		resp.Status = FieldMapStatus(status)
	default:
		if len(resp.Data) > 0 {
			resp.Status = FieldMapStatusSuccess
		} else {
			resp.Status = FieldMapStatusEmptyResponse
		}
	}

	resp.IsEmpty = len(resp.Data) == 0
	if available, found, err := unstructured.NestedBool(obj, "apiAvailable"); found && err == nil {
		resp.APIAvailable = available
	} else {
		resp.APIAvailable = resp.Status != FieldMapStatusAPIFailed
	}
	return resp
}

// NewFieldMapResponse builds a response from a flat path to method map, the
// shape returned by the platform endpoint.
func NewFieldMapResponse(data map[string]conflict.Method) *FieldMapResponse {
	resp := &FieldMapResponse{
		Data:         map[string]conflict.Method{},
		APIAvailable: true,
	}
	for path, method := range data {
		resp.Data[path] = method
	}
	resp.IsEmpty = len(resp.Data) == 0
	if resp.IsEmpty {
		resp.Status = FieldMapStatusEmptyResponse
	} else {
		resp.Status = FieldMapStatusSuccess
	}
	return resp
}

// FailedFieldMapResponse is the response recorded when the request failed.
func FailedFieldMapResponse() *FieldMapResponse {
	return &FieldMapResponse{
		Status:  FieldMapStatusAPIFailed,
		Data:    map[string]conflict.Method{},
		IsEmpty: true,
	}
}
