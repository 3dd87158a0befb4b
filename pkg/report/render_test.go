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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: "Markdown", want: FormatMarkdown},
		{in: " json ", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, schoolerrors.ErrUnknownFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, &Report{}, Format("html"))
	assert.True(t, errors.Is(err, schoolerrors.ErrUnknownFormat))
}

func TestRenderMarkdown(t *testing.T) {
	main, baseline := fixtureSchools()
	r := newTestBuilder(Options{}).Build(main, baseline)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatMarkdown))
	out := buf.String()

	for _, want := range []string{
		"# Configuration comparison: main-school vs baseline-school",
		"- Entity selection: formatters (sections)",
		"- Dropped formatter entities: ghosts",
		"## Summary",
		"### sections (compared)",
		"field map api-failed (degraded)",
		"#### Field exceptions",
		"Credit \\| hours",
		"alwaysCoursedog (configured)",
		"alwaysInstitution (configured)",
		NoRecordFound,
		"#### Merge settings",
		"### course template (compared)",
		"### section template (cannotCompare)",
		"#### Questions missing from one template",
		"field not in baseline-school",
		"## Attribute mappings (compared)",
		"campus.field",
		"## Integration filters (mainOnly)",
		"not present",
		"## Warnings",
		"- **duplicatePath** (sections, main):",
	} {
		assert.Contains(t, out, want)
	}

	// matching rows are left out by default
	assert.NotContains(t, out, "| description")

	// sections appear in a fixed order
	order := []string{"## Summary", "## Entities", "## Templates", "## Attribute mappings", "## Integration filters", "## Warnings"}
	last := -1
	for _, heading := range order {
		idx := strings.Index(out, heading)
		require.Greater(t, idx, last, heading)
		last = idx
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	render := func() string {
		main, baseline := fixtureSchools()
		var buf bytes.Buffer
		require.NoError(t, RenderMarkdown(&buf, newTestBuilder(Options{IncludeMatches: true}).Build(main, baseline)))
		return buf.String()
	}
	first := render()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, render())
	}
}

func TestRenderJSON(t *testing.T) {
	main, baseline := fixtureSchools()
	r := newTestBuilder(Options{}).Build(main, baseline)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.Main, decoded.Main)
	assert.Equal(t, r.Selection, decoded.Selection)
	assert.Equal(t, r.Summary, decoded.Summary)
	require.Len(t, decoded.Entities, 1)
	assert.Equal(t, r.Entities[0].Fields, decoded.Entities[0].Fields)
	assert.Equal(t, r.Warnings, decoded.Warnings)
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, `a \| b<br>c<br>d`, escapeCell("a | b\r\nc\nd"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", formatValue(nil))
	assert.Equal(t, "text", formatValue("text"))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, `{"a":[1,2]}`, formatValue(map[string]interface{}{"a": []interface{}{1, 2}}))
}
