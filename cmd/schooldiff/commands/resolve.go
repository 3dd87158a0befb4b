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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/schooldiff/schooldiff/internal/config"
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/exceptions"
	"github.com/schooldiff/schooldiff/pkg/metrics"
	"github.com/schooldiff/schooldiff/pkg/platform"
	"github.com/schooldiff/schooldiff/pkg/report"
	"github.com/schooldiff/schooldiff/pkg/settings"
	"github.com/schooldiff/schooldiff/pkg/snapshot"
)

// resolution is the output of the resolve command.
type resolution struct {
	School string          `json:"school"`
	Entity string          `json:"entity"`
	Path   string          `json:"path"`
	Value  conflict.Method `json:"value"`
	Source conflict.Layer  `json:"source"`
	// Status is the status of the field exception map response.
	Status settings.FieldMapStatus `json:"fieldMapStatus"`
	Map    *fieldMapEntry          `json:"fieldMap,omitempty"`
}

// fieldMapEntry is the value of the path in the assembled field exception
// map, when there is one.
type fieldMapEntry struct {
	Value    conflict.Method `json:"value"`
	Degraded bool            `json:"degraded"`
}

func newResolveCommand(root *rootOptions) *cobra.Command {
	var schoolDir string

	cmd := &cobra.Command{
		Use:   "resolve ENTITY PATH",
		Short: "Resolve the conflict handling method of one field of a school",
		Long: `Resolve the effective conflict handling method of a field path, e.g.
"times.0.timeBlockId", for one entity type of a school, and print the
precedence layer that produced it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup(cmd)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}

			school, err := snapshot.Load(log, schoolDir)
			if err != nil {
				return err
			}
			if cfg.RefreshFieldMaps {
				client, err := platform.NewClient(log, platformOptions(cfg, metrics.New()))
				if err != nil {
					return err
				}
				if err := refreshFieldMaps(cmd.Context(), log, client, school, []string{args[0]}); err != nil {
					return err
				}
			}
			return writeResolution(cmd.OutOrStdout(), resolve(cfg, school, args[0], args[1]), format)
		},
	}

	cmd.Flags().StringVar(&schoolDir, "school", "", "Snapshot directory of the school")
	_ = cmd.MarkFlagRequired("school")
	cmd.Flags().String("format", string(report.FormatMarkdown), "Output format: markdown or json")
	cmd.Flags().String("default-conflict-handling-method", "", "Method applied to unconfigured fields of entities without a default (default resolveAsCoursedog)")
	cmd.Flags().Bool("refresh-field-maps", false, "Fetch the field exception map from the platform API when the snapshot lacks it")
	addPlatformFlags(cmd)
	return cmd
}

func resolve(cfg *config.Config, school *snapshot.School, entity, path string) resolution {
	resolver := newResolver(cfg)
	es, _ := school.MergeSettings().Entity(entity)
	res := resolver.ResolveString(path, entity, es)

	out := resolution{
		School: school.Name,
		Entity: entity,
		Path:   path,
		Value:  res.Value,
		Source: res.Source,
	}

	resp := school.FieldMap(entity)
	out.Status = settings.FieldMapStatusAPIFailed
	if resp != nil {
		out.Status = resp.Status
	}
	assembled := exceptions.Assemble(resolver.Table(), entity, resp, es)
	if value, ok := assembled.Map[path]; ok {
		out.Map = &fieldMapEntry{Value: value, Degraded: assembled.Degraded}
	}
	return out
}

func writeResolution(w io.Writer, res resolution, format report.Format) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "%s %s: %s (%s)\n", res.Entity, res.Path, res.Value, res.Source)
	switch {
	case res.Map == nil:
		fmt.Fprintf(w, "field exception map (%s): %s\n", res.Status, report.NoRecordFound)
	case res.Map.Degraded:
		fmt.Fprintf(w, "field exception map (%s, degraded): %s\n", res.Status, res.Map.Value)
	default:
		fmt.Fprintf(w, "field exception map (%s): %s\n", res.Status, res.Map.Value)
	}
	return nil
}
