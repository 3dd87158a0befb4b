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
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/schooldiff/schooldiff/pkg/report"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.FgHiBlack).SprintFunc()
)

// printSummary writes a short colored summary of r, meant for a terminal.
func printSummary(w io.Writer, r *report.Report) {
	fmt.Fprintf(w, "%s vs %s\n", r.Main, r.Baseline)

	var entities []string
	for _, status := range []report.EntityStatus{
		report.StatusCompared,
		report.StatusMainOnly,
		report.StatusBaselineOnly,
		report.StatusMergeSettingsMissing,
		report.StatusCannotCompare,
	} {
		if n := r.Summary.Entities[status]; n > 0 {
			entities = append(entities, fmt.Sprintf("%s=%d", status, n))
		}
	}
	if len(entities) == 0 {
		fmt.Fprintf(w, "  entities: %s\n", faint("none selected"))
	} else {
		fmt.Fprintf(w, "  entities: %s\n", strings.Join(entities, ", "))
	}

	if diff := r.Summary.Differences(); diff > 0 {
		fmt.Fprintf(w, "  differences: %s\n", red(diff))
	} else {
		fmt.Fprintf(w, "  differences: %s\n", green("none"))
	}
	if r.Summary.Degraded > 0 {
		fmt.Fprintf(w, "  degraded field maps: %s\n", yellow(r.Summary.Degraded))
	}
	if r.Summary.Warnings > 0 {
		fmt.Fprintf(w, "  warnings: %s\n", yellow(r.Summary.Warnings))
	}
}
