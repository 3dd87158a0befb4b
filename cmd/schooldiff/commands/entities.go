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
	"strings"

	"github.com/spf13/cobra"

	"github.com/schooldiff/schooldiff/pkg/report"
	"github.com/schooldiff/schooldiff/pkg/selector"
	"github.com/schooldiff/schooldiff/pkg/settings"
	"github.com/schooldiff/schooldiff/pkg/snapshot"
)

// entityScope describes one selected entity type.
type entityScope struct {
	Entity           string `json:"entity"`
	InMain           bool   `json:"inMain"`
	InBaseline       bool   `json:"inBaseline"`
	EnabledMain      bool   `json:"enabledMain"`
	EnabledBaseline  bool   `json:"enabledBaseline"`
	MainFieldMap     bool   `json:"mainFieldMap"`
	BaselineFieldMap bool   `json:"baselineFieldMap"`
}

type entitiesOutput struct {
	Source   selector.Source `json:"source"`
	Entities []entityScope   `json:"entities"`
	Dropped  []string        `json:"dropped,omitempty"`
}

func newEntitiesCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities MAIN_DIR BASELINE_DIR",
		Short: "List the entity types a comparison would cover",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup(cmd)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}
			main, err := snapshot.Load(log, args[0])
			if err != nil {
				return err
			}
			baseline, err := snapshot.Load(log, args[1])
			if err != nil {
				return err
			}

			mainSettings, baselineSettings := main.MergeSettings(), baseline.MergeSettings()
			selection := selector.SelectTargetEntities(log, main.Formatters(), mainSettings, baselineSettings)
			out := entitiesOutput{Source: selection.Source, Dropped: selection.Dropped, Entities: []entityScope{}}
			for _, entity := range selection.Entities {
				out.Entities = append(out.Entities, scopeOf(entity, main, baseline, mainSettings, baselineSettings))
			}
			return writeEntities(cmd.OutOrStdout(), out, format)
		},
	}
	cmd.Flags().String("format", string(report.FormatMarkdown), "Output format: markdown or json")
	return cmd
}

func scopeOf(entity string, main, baseline *snapshot.School, mainSettings, baselineSettings settings.MergeSettings) entityScope {
	scope := entityScope{
		Entity:           entity,
		MainFieldMap:     !main.FieldMap(entity).Failed(),
		BaselineFieldMap: !baseline.FieldMap(entity).Failed(),
	}
	if es, ok := mainSettings.Entity(entity); ok {
		scope.InMain, scope.EnabledMain = true, es.Enabled
	}
	if es, ok := baselineSettings.Entity(entity); ok {
		scope.InBaseline, scope.EnabledBaseline = true, es.Enabled
	}
	return scope
}

func writeEntities(w io.Writer, out entitiesOutput, format report.Format) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "selected from: %s\n", out.Source)
	for _, e := range out.Entities {
		fmt.Fprintf(w, "- %s: main %s, baseline %s\n", e.Entity, describe(e.InMain, e.EnabledMain, e.MainFieldMap), describe(e.InBaseline, e.EnabledBaseline, e.BaselineFieldMap))
	}
	if len(out.Dropped) > 0 {
		fmt.Fprintf(w, "dropped formatters: %s\n", strings.Join(out.Dropped, ", "))
	}
	return nil
}

func describe(present, enabled, fieldMap bool) string {
	if !present {
		return "absent"
	}
	parts := []string{"disabled"}
	if enabled {
		parts[0] = "enabled"
	}
	if !fieldMap {
		parts = append(parts, "no field map")
	}
	return strings.Join(parts, ", ")
}
