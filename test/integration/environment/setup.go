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

package environment

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Environment holds copies of two school snapshots and a fake platform API
// serving field exception maps.
type Environment struct {
	PlatformConfig PlatformConfig

	// MainDir and BaselineDir are writable copies of the fixture snapshots.
	MainDir     string
	BaselineDir string
	Platform    *httptest.Server

	root     string
	mu       sync.Mutex
	requests []string
}

// PlatformConfig configures the fake platform API.
type PlatformConfig struct {
	// Token is the bearer token the API expects. Empty accepts any request.
	Token string
	// FieldMaps are the flat path to method maps served per entity type.
	FieldMaps map[string]map[string]string
	// FailingEntities answer with a 500.
	FailingEntities []string
}

// New copies the main and baseline snapshots found under fixtures and starts
// the fake platform API.
func New(fixtures string, platformConfig PlatformConfig) (*Environment, error) {
	root, err := os.MkdirTemp("", "schooldiff-integration-")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	env := &Environment{
		PlatformConfig: platformConfig,
		MainDir:        filepath.Join(root, "main"),
		BaselineDir:    filepath.Join(root, "baseline"),
		root:           root,
	}

	for src, dst := range map[string]string{
		filepath.Join(fixtures, "main"):     env.MainDir,
		filepath.Join(fixtures, "baseline"): env.BaselineDir,
	} {
		if err := copyDir(src, dst); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("copying fixtures: %w", err)
		}
	}

	env.Platform = httptest.NewServer(http.HandlerFunc(env.serveFieldMap))
	return env, nil
}

// Stop shuts the fake platform API down and removes the snapshot copies.
func (e *Environment) Stop() error {
	e.Platform.Close()
	return os.RemoveAll(e.root)
}

// Requests returns the paths requested from the fake platform API so far.
func (e *Environment) Requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

// Reset forgets the recorded requests.
func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = nil
}

func (e *Environment) serveFieldMap(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.requests = append(e.requests, r.URL.Path)
	e.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if e.PlatformConfig.Token != "" && r.Header.Get("Authorization") != "Bearer "+e.PlatformConfig.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dir, entity := path.Split(r.URL.Path)
	if strings.Trim(dir, "/") != "entityFieldExceptions" {
		http.NotFound(w, r)
		return
	}
	for _, failing := range e.PlatformConfig.FailingEntities {
		if failing == entity {
			http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
			return
		}
	}

	data := e.PlatformConfig.FieldMaps[entity]
	if data == nil {
		data = map[string]string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, content, 0o644)
	})
}
