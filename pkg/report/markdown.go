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

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/questions"
)

const notPresent = "not present"

// RenderMarkdown writes r as a Markdown document. Sections without rows are
// rendered with a short note so the layout is the same for every report.
func RenderMarkdown(w io.Writer, r *Report) error {
	md := &markdown{}

	md.line("# Configuration comparison: %s vs %s", r.Main, r.Baseline)
	md.blank()
	md.line("- Main school: `%s`", r.Main)
	md.line("- Baseline school: `%s`", r.Baseline)
	md.line("- Entity selection: %s (%s)", r.Selection.Source, joinOrNone(r.Selection.Entities))
	if len(r.Selection.Dropped) > 0 {
		md.line("- Dropped formatter entities: %s", strings.Join(r.Selection.Dropped, ", "))
	}
	if r.Filter != "" {
		md.line("- Filter: `%s`", r.Filter)
	}
	md.blank()

	md.renderSummary(r)
	md.renderEntities(r)
	md.renderTemplates(r)
	md.renderDocument("Attribute mappings", r, r.AttributeMappings)
	md.renderDocument("Integration filters", r, r.IntegrationFilters)
	md.renderWarnings(r)

	_, err := io.Copy(w, &md.buf)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

type markdown struct {
	buf bytes.Buffer
}

func (md *markdown) line(format string, args ...interface{}) {
	fmt.Fprintf(&md.buf, format+"\n", args...)
}

func (md *markdown) blank() {
	md.buf.WriteString("\n")
}

// table renders a GitHub flavored Markdown table.
func (md *markdown) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(&md.buf)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = escapeCell(cell)
		}
		table.Append(escaped)
	}
	table.Render()
	md.blank()
}

func (md *markdown) renderSummary(r *Report) {
	md.line("## Summary")
	md.blank()

	var rows [][]string
	for _, status := range sortedKeys(r.Summary.Entities) {
		rows = append(rows, []string{"entities", string(status), fmt.Sprint(r.Summary.Entities[status])})
	}
	for _, status := range sortedKeys(r.Summary.Rows) {
		rows = append(rows, []string{"rows", string(status), fmt.Sprint(r.Summary.Rows[status])})
	}
	rows = append(rows,
		[]string{"maps", "degraded", fmt.Sprint(r.Summary.Degraded)},
		[]string{"warnings", "total", fmt.Sprint(r.Summary.Warnings)},
	)
	md.table([]string{"Kind", "Status", "Count"}, rows)
}

func (md *markdown) renderEntities(r *Report) {
	md.line("## Entities")
	md.blank()
	if len(r.Entities) == 0 {
		md.line("No entity type is in scope.")
		md.blank()
		return
	}

	for _, er := range r.Entities {
		md.line("### %s (%s)", er.Entity, er.Status)
		md.blank()
		if er.Reason != "" {
			md.line("%s.", er.Reason)
			md.blank()
		}
		md.line("- %s: field map %s%s, %d configured paths", r.Main, er.Main.FieldMapStatus, degradedNote(er.Main.Degraded), er.Main.ConfiguredPaths)
		md.line("- %s: field map %s%s, %d configured paths", r.Baseline, er.Baseline.FieldMapStatus, degradedNote(er.Baseline.Degraded), er.Baseline.ConfiguredPaths)
		md.blank()

		if er.Status == StatusCannotCompare {
			continue
		}

		md.line("#### Field exceptions")
		md.blank()
		if len(er.Fields) == 0 {
			md.line("No differences.")
			md.blank()
		} else {
			rows := make([][]string, 0, len(er.Fields))
			for _, f := range er.Fields {
				rows = append(rows, []string{f.Path, f.Label, cellText(f.Main), cellText(f.Baseline), string(f.Status)})
			}
			md.table([]string{"Field", "Label", r.Main, r.Baseline, "Status"}, rows)
		}

		if len(er.MergeSettings) > 0 {
			md.line("#### Merge settings")
			md.blank()
			md.table([]string{"Setting", r.Main, r.Baseline, "Status"}, deltaRows(er.MergeSettings))
		}
	}
}

func degradedNote(degraded bool) string {
	if degraded {
		return " (degraded)"
	}
	return ""
}

func cellText(c Cell) string {
	if !c.Found() {
		return c.Text()
	}
	return fmt.Sprintf("%s (%s)", c.Value, c.Source)
}

func (md *markdown) renderTemplates(r *Report) {
	md.line("## Templates")
	md.blank()
	for _, tr := range r.Templates {
		md.line("### %s template (%s)", tr.Name, tr.Status)
		md.blank()
		if tr.Status == StatusCannotCompare {
			md.line("Template unavailable for both schools.")
			md.blank()
			continue
		}
		if tr.Truncated {
			md.line("The question tree was truncated at the depth limit.")
			md.blank()
		}

		if len(tr.Rows) == 0 {
			md.line("No differences.")
			md.blank()
		} else {
			rows := make([][]string, 0, len(tr.Rows))
			for _, q := range tr.Rows {
				rows = append(rows, []string{
					q.QuestionID,
					q.SubFieldID,
					q.Label,
					questionValue(q.Main, q.InMain, r.Main),
					questionValue(q.Baseline, q.InBaseline, r.Baseline),
					string(q.Status),
				})
			}
			md.table([]string{"Question", "Sub-field", "Property", r.Main, r.Baseline, "Status"}, rows)
		}

		missing := existenceGaps(tr.Existence)
		if len(missing) > 0 {
			md.line("#### Questions missing from one template")
			md.blank()
			rows := make([][]string, 0, len(missing))
			for _, e := range missing {
				rows = append(rows, []string{e.ID, yesNo(e.InMain), yesNo(e.InBaseline)})
			}
			md.table([]string{"Question", r.Main, r.Baseline}, rows)
		}
	}
}

func questionValue(v interface{}, present bool, school string) string {
	if !present {
		return "field not in " + school
	}
	return formatValue(v)
}

func existenceGaps(rows []questions.ExistenceRow) []questions.ExistenceRow {
	var out []questions.ExistenceRow
	for _, e := range rows {
		if !e.InBoth {
			out = append(out, e)
		}
	}
	return out
}

func (md *markdown) renderDocument(title string, r *Report, dr DocumentReport) {
	md.line("## %s (%s)", title, dr.Status)
	md.blank()
	switch {
	case dr.Status == StatusCannotCompare:
		md.line("Unavailable for both schools.")
		md.blank()
	case len(dr.Rows) == 0:
		md.line("No differences.")
		md.blank()
	default:
		md.table([]string{"Path", r.Main, r.Baseline, "Status"}, deltaRows(dr.Rows))
	}
}

func (md *markdown) renderWarnings(r *Report) {
	if len(r.Warnings) == 0 {
		return
	}
	md.line("## Warnings")
	md.blank()
	for _, w := range r.Warnings {
		var scope []string
		if w.Entity != "" {
			scope = append(scope, w.Entity)
		}
		if w.School != "" {
			scope = append(scope, w.School)
		}
		if len(scope) > 0 {
			md.line("- **%s** (%s): %s", w.Kind, strings.Join(scope, ", "), w.Message)
		} else {
			md.line("- **%s**: %s", w.Kind, w.Message)
		}
	}
	md.blank()
}

func deltaRows(rows []delta.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		left, right := formatValue(row.Left), formatValue(row.Right)
		switch row.Status {
		case delta.StatusOnlyRight:
			left = notPresent
		case delta.StatusOnlyLeft:
			right = notPresent
		}
		out = append(out, []string{row.Path, left, right, string(row.Status)})
	}
	return out
}

// formatValue renders a JSON value on one line.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
