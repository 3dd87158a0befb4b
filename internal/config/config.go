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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/platform"
)

const (
	// EnvPrefix prefixes every environment variable read, e.g.
	// SCHOOLDIFF_PLATFORM_TOKEN.
	EnvPrefix = "SCHOOLDIFF"
	// FileName is the configuration file looked up in the working directory
	// when no file is given.
	FileName = "schooldiff"
)

// Config holds every setting of the command line tool. Values come, in
// increasing precedence, from defaults, the configuration file, the
// environment and the command line flags.
type Config struct {
	LogLevel    int    `mapstructure:"logLevel"`
	Development bool   `mapstructure:"development"`
	Format      string `mapstructure:"format"`
	// Output is the report file. Empty writes to stdout.
	Output   string `mapstructure:"output"`
	MaxDepth int    `mapstructure:"maxDepth"`

	DefaultConflictHandlingMethod string `mapstructure:"defaultConflictHandlingMethod"`

	// Aliases are extra equivalent key pairs for loosely structured
	// payloads, alias to canonical.
	Aliases        map[string]string `mapstructure:"aliases"`
	PluralFolding  bool              `mapstructure:"pluralFolding"`
	IncludeMatches bool              `mapstructure:"includeMatches"`
	Filter         string            `mapstructure:"filter"`
	MetricsFile    string            `mapstructure:"metricsFile"`

	// RefreshFieldMaps fetches the field exception maps missing from a
	// snapshot from the platform API.
	RefreshFieldMaps bool     `mapstructure:"refreshFieldMaps"`
	Platform         Platform `mapstructure:"platform"`
}

// Platform configures the platform API client.
type Platform struct {
	BaseURL string        `mapstructure:"baseURL"`
	Token   string        `mapstructure:"token"`
	QPS     float64       `mapstructure:"qps"`
	Burst   int           `mapstructure:"burst"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// flagKeys maps configuration keys to the flag names bound to them.
var flagKeys = map[string]string{
	"logLevel":                      "log-level",
	"development":                   "development",
	"format":                        "format",
	"output":                        "output",
	"maxDepth":                      "max-depth",
	"defaultConflictHandlingMethod": "default-conflict-handling-method",
	"pluralFolding":                 "plural-folding",
	"includeMatches":                "include-matches",
	"filter":                        "filter",
	"metricsFile":                   "metrics-file",
	"refreshFieldMaps":              "refresh-field-maps",
	"platform.baseURL":              "platform-url",
	"platform.token":                "platform-token",
	"platform.qps":                  "platform-qps",
	"platform.burst":                "platform-burst",
	"platform.timeout":              "platform-timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", 0)
	v.SetDefault("development", false)
	v.SetDefault("format", "markdown")
	v.SetDefault("output", "")
	v.SetDefault("maxDepth", delta.DefaultMaxDepth)
	v.SetDefault("defaultConflictHandlingMethod", "")
	v.SetDefault("aliases", map[string]string{})
	v.SetDefault("pluralFolding", false)
	v.SetDefault("includeMatches", false)
	v.SetDefault("filter", "")
	v.SetDefault("metricsFile", "")
	v.SetDefault("refreshFieldMaps", false)
	v.SetDefault("platform.baseURL", "")
	v.SetDefault("platform.token", "")
	v.SetDefault("platform.qps", platform.DefaultQPS)
	v.SetDefault("platform.burst", platform.DefaultBurst)
	v.SetDefault("platform.timeout", platform.DefaultTimeout)
}

// Load reads the configuration. file may be empty, in which case an optional
// schooldiff.yaml in the working directory is used. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.LogLevel < 0 {
		errs = append(errs, fmt.Errorf("logLevel must not be negative"))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("maxDepth must not be negative"))
	}
	if c.Platform.QPS < 0 {
		errs = append(errs, fmt.Errorf("platform.qps must not be negative"))
	}
	if c.Platform.Burst < 0 {
		errs = append(errs, fmt.Errorf("platform.burst must not be negative"))
	}
	if c.RefreshFieldMaps && c.Platform.BaseURL == "" {
		errs = append(errs, fmt.Errorf("refreshFieldMaps requires platform.baseURL"))
	}
	for alias, canonical := range c.Aliases {
		if alias == "" || canonical == "" {
			errs = append(errs, fmt.Errorf("aliases must not hold empty keys or values"))
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", schoolerrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// PlatformOptions returns the client options of the platform section.
func (c *Config) PlatformOptions() platform.Options {
	return platform.Options{
		BaseURL: c.Platform.BaseURL,
		Token:   c.Platform.Token,
		QPS:     c.Platform.QPS,
		Burst:   c.Platform.Burst,
		Timeout: c.Platform.Timeout,
	}
}
