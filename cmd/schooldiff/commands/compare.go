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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/schooldiff/schooldiff/internal/config"
	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/cel"
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/exceptions"
	"github.com/schooldiff/schooldiff/pkg/metrics"
	"github.com/schooldiff/schooldiff/pkg/normalize"
	"github.com/schooldiff/schooldiff/pkg/platform"
	"github.com/schooldiff/schooldiff/pkg/report"
	"github.com/schooldiff/schooldiff/pkg/selector"
	"github.com/schooldiff/schooldiff/pkg/snapshot"
)

func newCompareCommand(root *rootOptions) *cobra.Command {
	var failOnDiff bool

	cmd := &cobra.Command{
		Use:   "compare MAIN_DIR BASELINE_DIR",
		Short: "Compare the configuration of a main school against a baseline school",
		Long: `Compare the configuration snapshots of two schools. Each directory holds
the payloads fetched from one school (mergeSettings.json, formatters.json,
fieldExceptionMaps.json, ...). Missing payloads degrade the report, they never
fail the run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup(cmd)
			if err != nil {
				return err
			}
			r, err := runCompare(cmd.Context(), log, cfg, args[0], args[1], cmd.OutOrStdout())
			if err != nil {
				return err
			}
			printSummary(cmd.ErrOrStderr(), r)
			if failOnDiff && r.Summary.Differences() > 0 {
				return errDifferences
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("format", string(report.FormatMarkdown), "Report format: markdown or json")
	flags.StringP("output", "o", "", "Write the report to this file instead of stdout")
	flags.Int("max-depth", delta.DefaultMaxDepth, "Maximum depth of structural comparisons")
	flags.String("default-conflict-handling-method", "", "Method applied to unconfigured fields of entities without a default (default resolveAsCoursedog)")
	flags.Bool("plural-folding", false, "Treat singular and plural keys as aliases in loosely structured payloads")
	flags.Bool("include-matches", false, "Keep matching rows in the report")
	flags.String("filter", "", `CEL expression selecting the reported rows, e.g. status == "different"`)
	flags.String("metrics-file", "", "Write run metrics in the Prometheus text format to this file")
	flags.Bool("refresh-field-maps", false, "Fetch the field exception maps missing from the main snapshot from the platform API")
	addPlatformFlags(cmd)
	flags.BoolVar(&failOnDiff, "fail-on-diff", false, "Exit with code 2 when differences are found")
	return cmd
}

func addPlatformFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("platform-url", "", "Base URL of the platform API")
	flags.String("platform-token", "", "Bearer token of the platform API")
	flags.Float64("platform-qps", platform.DefaultQPS, "Maximum platform requests per second")
	flags.Int("platform-burst", platform.DefaultBurst, "Platform request burst")
	flags.Duration("platform-timeout", platform.DefaultTimeout, "Timeout of one platform request")
}

// runCompare builds the report of the two snapshot directories and writes it
// to the configured output, stdout unless cfg.Output is set.
func runCompare(ctx context.Context, log logr.Logger, cfg *config.Config, mainDir, baselineDir string, stdout io.Writer) (*report.Report, error) {
	start := time.Now()
	m := metrics.New()

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	filter, err := cel.NewRowFilter(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	main, err := snapshot.Load(log, mainDir)
	if err != nil {
		return nil, err
	}
	baseline, err := snapshot.Load(log, baselineDir)
	if err != nil {
		return nil, err
	}

	if cfg.RefreshFieldMaps {
		client, err := platform.NewClient(log, platformOptions(cfg, m))
		if err != nil {
			return nil, err
		}
		selection := selector.SelectTargetEntities(log, main.Formatters(), main.MergeSettings(), baseline.MergeSettings())
		if err := refreshFieldMaps(ctx, log, client, main, selection.Entities); err != nil {
			return nil, err
		}
	}

	builder := report.NewBuilder(log, report.Options{
		Resolver:       newResolver(cfg),
		Aliases:        normalize.NewAliases(cfg.Aliases, cfg.PluralFolding),
		Filter:         filter,
		MaxDepth:       cfg.MaxDepth,
		IncludeMatches: cfg.IncludeMatches,
		Metrics:        m,
	})
	r := builder.Build(main, baseline)

	if err := writeReport(r, format, cfg.Output, stdout); err != nil {
		return nil, err
	}

	m.SetRunDuration(time.Since(start))
	if cfg.MetricsFile != "" {
		if err := m.WriteToTextfile(cfg.MetricsFile); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	log.Info("comparison done", "entities", len(r.Entities), "differences", r.Summary.Differences(), "warnings", r.Summary.Warnings)
	return r, nil
}

func newResolver(cfg *config.Config) *exceptions.Resolver {
	return exceptions.NewResolver(
		exceptions.DefaultGlobalTable(),
		exceptions.WithDefaultMethod(conflict.Method(cfg.DefaultConflictHandlingMethod)),
	)
}

func platformOptions(cfg *config.Config, m *metrics.Metrics) platform.Options {
	opts := cfg.PlatformOptions()
	opts.Metrics = m
	return opts
}

// refreshFieldMaps fetches, one entity at a time, the field exception maps
// the school snapshot does not hold. A failed request is recorded as an
// api-failed response so the report degrades; a rejected token stops the
// refresh since every following request would be rejected too.
func refreshFieldMaps(ctx context.Context, log logr.Logger, client *platform.Client, school *snapshot.School, entities []string) error {
	for _, entity := range entities {
		if school.HasFieldMap(entity) {
			continue
		}
		resp, err := client.FieldExceptionMap(ctx, entity)
		school.SetFieldMap(entity, resp)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error(err, "failed to fetch field exception map", "school", school.Name, "entity", entity)
		if errors.Is(err, schoolerrors.ErrUnauthorized) {
			return nil
		}
	}
	return nil
}

func writeReport(r *report.Report, format report.Format, output string, stdout io.Writer) error {
	if output == "" {
		return report.Render(stdout, r, format)
	}
	// render fully before touching the file so a failure leaves no partial
	// report behind.
	var buf bytes.Buffer
	if err := report.Render(&buf, r, format); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
