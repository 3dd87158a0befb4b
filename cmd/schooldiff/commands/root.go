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

package commands

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/schooldiff/schooldiff/internal/config"
	"github.com/schooldiff/schooldiff/internal/logging"
)

// errDifferences is returned by compare --fail-on-diff when the report holds
// differences. It maps to exit code 2.
var errDifferences = errors.New("differences found")

// ExitCode returns the process exit code of an error returned by a command.
func ExitCode(err error) int {
	if errors.Is(err, errDifferences) {
		return 2
	}
	return 1
}

type rootOptions struct {
	configFile string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "schooldiff",
		Short: "schooldiff compares the integration configuration of two schools",
		Long: `schooldiff compares the merge settings, field exception maps, templates,
attribute mappings and integration filters of a main school against a
baseline school, and reports every difference in the effective sync behavior.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to the configuration file (default ./schooldiff.yaml when present)")
	cmd.PersistentFlags().Int("log-level", 0, "The log level verbosity. 0 is the least verbose, 5 is the most verbose.")
	cmd.PersistentFlags().Bool("development", false, "Log in human readable form")

	cmd.AddCommand(
		newCompareCommand(opts),
		newResolveCommand(opts),
		newEntitiesCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// setup loads the configuration, with the flags of cmd taking precedence, and
// builds the root logger.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, logr.Logger, error) {
	cfg, err := config.Load(o.configFile, cmd.Flags())
	if err != nil {
		return nil, logr.Discard(), err
	}
	log := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	return cfg, log, nil
}
