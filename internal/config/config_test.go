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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/normalize"
	"github.com/schooldiff/schooldiff/pkg/platform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "schooldiff.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, delta.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, float64(platform.DefaultQPS), cfg.Platform.QPS)
	assert.Equal(t, platform.DefaultBurst, cfg.Platform.Burst)
	assert.Equal(t, platform.DefaultTimeout, cfg.Platform.Timeout)
	assert.False(t, cfg.RefreshFieldMaps)
}

func TestLoad_File(t *testing.T) {
	file := writeConfig(t, `
format: json
maxDepth: 8
defaultConflictHandlingMethod: resolveAsInstitution
pluralFolding: true
aliases:
  buildings: building
platform:
  baseURL: https://platform.example.com/api
  timeout: 5s
  burst: 2
`)

	cfg, err := Load(file, nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, "resolveAsInstitution", cfg.DefaultConflictHandlingMethod)
	assert.True(t, cfg.PluralFolding)
	assert.Equal(t, map[string]string{"buildings": "building"}, cfg.Aliases)
	assert.Equal(t, "https://platform.example.com/api", cfg.Platform.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, 2, cfg.Platform.Burst)
}

func TestLoad_MixedCaseAliases(t *testing.T) {
	file := writeConfig(t, `
aliases:
  Campuses: campus
  BuildingSites: Building
`)

	cfg, err := Load(file, nil)
	require.NoError(t, err)

	aliases := normalize.NewAliases(cfg.Aliases, false)
	assert.Equal(t, "campus", aliases.Canonical("Campuses"))
	assert.Equal(t, "Building", aliases.Canonical("BuildingSites"))
	assert.Equal(t, "Building", aliases.Canonical("buildingsites"))
	assert.True(t, aliases.Equivalent("BuildingSites", "building"))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeConfig(t, `
format: json
filter: status == "different"
platform:
  token: from-file
`)
	t.Setenv("SCHOOLDIFF_PLATFORM_TOKEN", "from-env")
	t.Setenv("SCHOOLDIFF_FILTER", `section == "fields"`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "markdown", "")
	flags.String("filter", "", "")
	require.NoError(t, flags.Parse([]string{"--format", "md"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	// a set flag wins over everything
	assert.Equal(t, "md", cfg.Format)
	// the environment wins over the file and unset flags
	assert.Equal(t, `section == "fields"`, cfg.Filter)
	assert.Equal(t, "from-env", cfg.Platform.Token)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value", cfg: Config{}},
		{name: "negative depth", cfg: Config{MaxDepth: -1}, wantErr: true},
		{name: "negative log level", cfg: Config{LogLevel: -2}, wantErr: true},
		{name: "refresh without url", cfg: Config{RefreshFieldMaps: true}, wantErr: true},
		{
			name: "refresh with url",
			cfg:  Config{RefreshFieldMaps: true, Platform: Platform{BaseURL: "https://x"}},
		},
		{name: "empty alias", cfg: Config{Aliases: map[string]string{"rooms": ""}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, schoolerrors.ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPlatformOptions(t *testing.T) {
	cfg := Config{Platform: Platform{BaseURL: "https://x", Token: "t", QPS: 2, Burst: 3, Timeout: time.Second}}
	assert.Equal(t, platform.Options{BaseURL: "https://x", Token: "t", QPS: 2, Burst: 3, Timeout: time.Second}, cfg.PlatformOptions())
}
