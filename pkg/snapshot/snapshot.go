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

package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"sigs.k8s.io/yaml"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

// Payload names one of the documents fetched from a school.
type Payload string

const (
	PayloadMergeSettings      Payload = "mergeSettings"
	PayloadFormatters         Payload = "formatters"
	PayloadFieldExceptionMaps Payload = "fieldExceptionMaps"
	PayloadCourseTemplate     Payload = "courseTemplate"
	PayloadProgramTemplate    Payload = "programTemplate"
	PayloadSectionTemplate    Payload = "sectionTemplate"
	PayloadAttributeMappings  Payload = "attributeMappings"
	PayloadIntegrationFilters Payload = "integrationFilters"
)

// Payloads lists every payload a snapshot directory may hold.
var Payloads = []Payload{
	PayloadMergeSettings,
	PayloadFormatters,
	PayloadFieldExceptionMaps,
	PayloadCourseTemplate,
	PayloadProgramTemplate,
	PayloadSectionTemplate,
	PayloadAttributeMappings,
	PayloadIntegrationFilters,
}

// extensions are tried in order; the first existing file wins.
var extensions = []string{".json", ".yaml", ".yml"}

// School holds the raw payloads of one school. A payload that was not
// fetched is absent, which is an expected upstream failure and not an error.
type School struct {
	Name     string
	Dir      string
	payloads map[Payload]interface{}
	// fieldMaps holds responses fetched after loading; they take precedence
	// over the fieldExceptionMaps payload.
	fieldMaps map[string]*settings.FieldMapResponse
}

// New returns a School built from in-memory payloads.
func New(name string, payloads map[Payload]interface{}) *School {
	s := &School{
		Name:      name,
		payloads:  map[Payload]interface{}{},
		fieldMaps: map[string]*settings.FieldMapResponse{},
	}
	for p, v := range payloads {
		s.payloads[p] = v
	}
	return s
}

// Load reads the payloads found in dir. Each payload is read from
// <payload>.json, <payload>.yaml or <payload>.yml. Missing files are absent
// payloads; files that exist but cannot be decoded are errors.
func Load(log logr.Logger, dir string) (*School, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", schoolerrors.ErrSnapshotNotFound, dir)
		}
		return nil, fmt.Errorf("failed to stat snapshot %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", schoolerrors.ErrSnapshotNotFound, dir)
	}

	s := New(filepath.Base(filepath.Clean(dir)), nil)
	s.Dir = dir
	for _, p := range Payloads {
		file, ok := findPayloadFile(dir, p)
		if !ok {
			log.V(1).Info("payload absent", "school", s.Name, "payload", p)
			continue
		}
		value, err := decodeFile(file)
		if err != nil {
			return nil, err
		}
		s.payloads[p] = value
		log.V(1).Info("payload loaded", "school", s.Name, "payload", p, "file", file)
	}
	return s, nil
}

func findPayloadFile(dir string, p Payload) (string, bool) {
	for _, ext := range extensions {
		file := filepath.Join(dir, string(p)+ext)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return file, true
		}
	}
	return "", false
}

// decodeFile reads a JSON or YAML document into JSON compatible values.
func decodeFile(file string) (interface{}, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, schoolerrors.NewSnapshotError(file, err)
	}
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, schoolerrors.NewSnapshotError(file, err)
	}
	return value, nil
}

// Raw returns a payload as loaded. The second return value is false when the
// payload is absent.
func (s *School) Raw(p Payload) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.payloads[p]
	return v, ok
}

// Failed reports whether a payload is absent or holds an error object.
func (s *School) Failed(p Payload) bool {
	v, ok := s.Raw(p)
	if !ok || v == nil {
		return true
	}
	if obj, isObj := v.(map[string]interface{}); isObj {
		_, hasError := obj["error"]
		return hasError
	}
	return false
}

// Value returns a payload, or nil when it is absent or failed.
func (s *School) Value(p Payload) interface{} {
	if s.Failed(p) {
		return nil
	}
	v, _ := s.Raw(p)
	return v
}

// Object returns a payload that is expected to be a JSON object, or nil.
func (s *School) Object(p Payload) map[string]interface{} {
	obj, _ := s.Value(p).(map[string]interface{})
	return obj
}

func (s *School) MergeSettings() settings.MergeSettings {
	raw, _ := s.Raw(PayloadMergeSettings)
	return settings.NewMergeSettings(raw)
}

func (s *School) Formatters() settings.Formatters {
	raw, _ := s.Raw(PayloadFormatters)
	return settings.ParseFormatters(raw)
}

// FieldMap returns the field exception map response of an entity. A nil
// response means nothing was recorded, which callers treat as a failed
// request.
func (s *School) FieldMap(entityType string) *settings.FieldMapResponse {
	if s == nil {
		return nil
	}
	if resp, ok := s.fieldMaps[entityType]; ok {
		return resp
	}
	maps := s.Object(PayloadFieldExceptionMaps)
	if maps == nil {
		return nil
	}
	return settings.ParseFieldMapResponse(maps[entityType])
}

// SetFieldMap records a freshly fetched response for an entity.
func (s *School) SetFieldMap(entityType string, resp *settings.FieldMapResponse) {
	if s.fieldMaps == nil {
		s.fieldMaps = map[string]*settings.FieldMapResponse{}
	}
	s.fieldMaps[entityType] = resp
}

// HasFieldMap reports whether a field exception map response is recorded
// for the entity, either loaded or fetched.
func (s *School) HasFieldMap(entityType string) bool {
	return s.FieldMap(entityType) != nil
}
