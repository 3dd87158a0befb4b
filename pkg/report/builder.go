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
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/schooldiff/schooldiff/pkg/cel"
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/exceptions"
	"github.com/schooldiff/schooldiff/pkg/fieldpath"
	"github.com/schooldiff/schooldiff/pkg/metrics"
	"github.com/schooldiff/schooldiff/pkg/normalize"
	"github.com/schooldiff/schooldiff/pkg/questions"
	"github.com/schooldiff/schooldiff/pkg/selector"
	"github.com/schooldiff/schooldiff/pkg/settings"
	"github.com/schooldiff/schooldiff/pkg/snapshot"
)

const (
	schoolMain     = "main"
	schoolBaseline = "baseline"
)

// mergeSettingsKeys are the scalar entity settings compared between schools.
var mergeSettingsKeys = []string{"enabled", "type", "conflictHandlingMethod", "stepsToExecute"}

type templateSpec struct {
	name    string
	payload snapshot.Payload
	// tree is set for templates holding a children tree instead of a
	// questions map.
	tree bool
}

var templateSpecs = []templateSpec{
	{name: "course", payload: snapshot.PayloadCourseTemplate},
	{name: "section", payload: snapshot.PayloadSectionTemplate},
	{name: "program", payload: snapshot.PayloadProgramTemplate, tree: true},
}

// Options configures a Builder.
type Options struct {
	// Resolver defaults to a resolver over the default global table.
	Resolver *exceptions.Resolver
	Aliases  *normalize.Aliases
	// Filter drops the rows it does not match. Nil keeps every row.
	Filter *cel.RowFilter
	// MaxDepth bounds structural comparisons and template trees.
	MaxDepth int
	// IncludeMatches keeps matching rows in the report.
	IncludeMatches bool
	Metrics        *metrics.Metrics
}

// Builder turns two school snapshots into a Report. A Builder holds no state
// between calls to Build.
type Builder struct {
	log  logr.Logger
	opts Options
}

// NewBuilder returns a Builder.
func NewBuilder(log logr.Logger, opts Options) *Builder {
	if opts.Resolver == nil {
		opts.Resolver = exceptions.NewResolver(exceptions.DefaultGlobalTable())
	}
	return &Builder{log: log.WithName("report"), opts: opts}
}

// buildState holds what one Build call accumulates.
type buildState struct {
	report       *Report
	filterWarned bool
}

func (s *buildState) warn(kind WarningKind, entity, school, format string, args ...interface{}) {
	s.report.Warnings = append(s.report.Warnings, Warning{
		Kind:    kind,
		Entity:  entity,
		School:  school,
		Message: fmt.Sprintf(format, args...),
	})
}

// Build compares main against baseline. It never fails: missing or failed
// payloads degrade the affected sections and are recorded in the report.
func (b *Builder) Build(main, baseline *snapshot.School) *Report {
	r := &Report{
		Main:     schoolName(main, schoolMain),
		Baseline: schoolName(baseline, schoolBaseline),
		Filter:   b.opts.Filter.String(),
	}
	st := &buildState{report: r}

	mainSettings := main.MergeSettings()
	baselineSettings := baseline.MergeSettings()

	selection := selector.SelectTargetEntities(b.log, main.Formatters(), mainSettings, baselineSettings)
	r.Selection = Selection{
		Entities: selection.Entities,
		Source:   selection.Source,
		Dropped:  selection.Dropped,
	}
	if r.Selection.Entities == nil {
		r.Selection.Entities = []string{}
	}
	for _, entity := range selection.Dropped {
		st.warn(WarningDroppedFormatter, entity, schoolMain,
			"formatter %q is enabled but the entity is absent from both schools' merge settings", entity)
	}
	b.log.Info("entities selected", "source", selection.Source, "count", len(selection.Entities))

	r.Entities = []EntityReport{}
	for _, entity := range selection.Entities {
		r.Entities = append(r.Entities, b.buildEntity(st, entity, main, baseline, mainSettings, baselineSettings))
	}

	r.Templates = []TemplateReport{}
	for _, spec := range templateSpecs {
		r.Templates = append(r.Templates, b.buildTemplate(st, spec, main, baseline))
	}

	r.AttributeMappings = b.buildDocument(st, SectionAttributeMappings, snapshot.PayloadAttributeMappings, main, baseline)
	r.IntegrationFilters = b.buildDocument(st, SectionIntegrationFilters, snapshot.PayloadIntegrationFilters, main, baseline)

	b.summarize(r)
	return r
}

func schoolName(s *snapshot.School, fallback string) string {
	if s == nil || s.Name == "" {
		return fallback
	}
	return s.Name
}

func (b *Builder) buildEntity(
	st *buildState,
	entity string,
	main, baseline *snapshot.School,
	mainSettings, baselineSettings settings.MergeSettings,
) EntityReport {
	er := EntityReport{Entity: entity}
	log := b.log.WithValues("entity", entity)

	mainCfg, inMain := mainSettings.Entity(entity)
	baselineCfg, inBaseline := baselineSettings.Entity(entity)
	mainResp := main.FieldMap(entity)
	baselineResp := baseline.FieldMap(entity)
	er.Main = schoolState(mainCfg, inMain, mainResp)
	er.Baseline = schoolState(baselineCfg, inBaseline, baselineResp)

	for _, side := range []struct {
		school string
		cfg    *settings.EntitySettings
		resp   *settings.FieldMapResponse
	}{
		{schoolMain, mainCfg, mainResp},
		{schoolBaseline, baselineCfg, baselineResp},
	} {
		for _, dup := range side.cfg.DuplicatePaths() {
			st.warn(WarningDuplicatePath, entity, side.school,
				"path %q is configured in several exception groups (%s); the last group wins", dup.Path, joinMethods(dup.Methods))
		}
		if side.resp.Failed() {
			st.warn(WarningFieldMapFailed, entity, side.school, "field exception map unavailable")
		}
	}

	bothFailed := mainResp.Failed() && baselineResp.Failed()
	switch {
	case !mainSettings.Available() || !baselineSettings.Available():
		er.Status = StatusMergeSettingsMissing
		er.Reason = missingSettingsReason(mainSettings.Available(), baselineSettings.Available())
	case bothFailed:
		er.Status = StatusCannotCompare
		er.Reason = "field exception maps unavailable for both schools"
	case inMain && !inBaseline:
		er.Status = StatusMainOnly
	case !inMain && inBaseline:
		er.Status = StatusBaselineOnly
	default:
		er.Status = StatusCompared
	}
	log.V(1).Info("entity status", "status", er.Status)

	if bothFailed {
		return er
	}

	table := b.opts.Resolver.Table()
	mainMap := exceptions.Assemble(table, entity, mainResp, mainCfg)
	baselineMap := exceptions.Assemble(table, entity, baselineResp, baselineCfg)
	er.Main.Degraded = mainMap.Degraded
	er.Baseline.Degraded = baselineMap.Degraded

	labels := baselineCfg.Labels()
	for path, label := range mainCfg.Labels() {
		labels[path] = label
	}

	fields := exceptions.BuildUnifiedFieldList(mainResp, baselineResp, mainCfg, baselineCfg)
	for _, path := range sets.List(fields) {
		row := FieldRow{
			Path:     path,
			Label:    labelFor(labels, path),
			Main:     b.cell(path, entity, mainMap, mainCfg),
			Baseline: b.cell(path, entity, baselineMap, baselineCfg),
		}
		row.Status = cellStatus(row.Main, row.Baseline)
		if !b.opts.IncludeMatches && row.Status == delta.StatusMatch {
			continue
		}
		if !b.match(st, cel.RowVars{
			Entity:   entity,
			Section:  string(SectionFields),
			Path:     path,
			Status:   string(row.Status),
			Layer:    string(row.Main.Source),
			Main:     string(row.Main.Value),
			Baseline: string(row.Baseline.Value),
		}) {
			continue
		}
		er.Fields = append(er.Fields, row)
	}
	log.V(1).Info("fields compared", "paths", fields.Len(), "rows", len(er.Fields))

	if mainSettings.Available() && baselineSettings.Available() {
		rows := delta.Compare(projectSettings(mainCfg), projectSettings(baselineCfg), "", delta.WithMaxDepth(b.opts.MaxDepth))
		er.MergeSettings = b.filterRows(st, entity, SectionMergeSettings, rows)
	}
	return er
}

// labelFor returns the label configured for path. A concrete array path
// falls back to the label of its wildcard form, e.g. times.0.timeBlockId to
// times.$.timeBlockId.
func labelFor(labels map[string]string, path string) string {
	if label, ok := labels[path]; ok {
		return label
	}
	p, err := fieldpath.Parse(path)
	if err != nil {
		return ""
	}
	return labels[p.Generalize().String()]
}

func schoolState(cfg *settings.EntitySettings, found bool, resp *settings.FieldMapResponse) SchoolState {
	state := SchoolState{
		InMergeSettings: found,
		FieldMapStatus:  settings.FieldMapStatusAPIFailed,
	}
	if cfg != nil {
		state.Enabled = cfg.Enabled
		state.ConfiguredPaths = len(cfg.ConfiguredPaths())
	}
	if resp != nil {
		state.FieldMapStatus = resp.Status
	}
	return state
}

func missingSettingsReason(mainOK, baselineOK bool) string {
	switch {
	case !mainOK && !baselineOK:
		return "merge settings unavailable for both schools"
	case !mainOK:
		return "merge settings unavailable for the main school"
	default:
		return "merge settings unavailable for the baseline school"
	}
}

func joinMethods(methods []conflict.Method) string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, string(m))
	}
	return strings.Join(out, ", ")
}

// cell returns the effective exception of path for one school. A path the
// degraded map does not hold is reported as missing, even when a global
// exception exists: the record cannot be confirmed.
func (b *Builder) cell(path, entity string, assembled exceptions.Assembled, cfg *settings.EntitySettings) Cell {
	value, inMap := assembled.Map[path]
	if !inMap && assembled.Degraded {
		return Cell{Source: SourceMissing}
	}

	resolution := b.opts.Resolver.ResolveString(path, entity, cfg)
	switch resolution.Source {
	case conflict.LayerGlobal:
		return Cell{Value: resolution.Value, Source: SourceGlobal}
	case conflict.LayerConfigured:
		// the assembled map reflects the last group listing the path
		if inMap {
			return Cell{Value: value, Source: SourceConfigured}
		}
		return Cell{Value: resolution.Value, Source: SourceConfigured}
	}
	if inMap {
		return Cell{Value: value, Source: SourcePlatform}
	}
	return Cell{Value: resolution.Value, Source: SourceDefault}
}

func cellStatus(main, baseline Cell) delta.Status {
	switch {
	case main.Found() && baseline.Found():
		if main.Value == baseline.Value {
			return delta.StatusMatch
		}
		return delta.StatusDifferent
	case main.Found():
		return delta.StatusOnlyLeft
	case baseline.Found():
		return delta.StatusOnlyRight
	}
	return delta.StatusDifferent
}

func projectSettings(cfg *settings.EntitySettings) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	out := map[string]interface{}{}
	for _, key := range mergeSettingsKeys {
		if v, ok := cfg.Raw[key]; ok {
			out[key] = v
		}
	}
	return out
}

func availability(mainFailed, baselineFailed bool) EntityStatus {
	switch {
	case mainFailed && baselineFailed:
		return StatusCannotCompare
	case baselineFailed:
		return StatusMainOnly
	case mainFailed:
		return StatusBaselineOnly
	}
	return StatusCompared
}

func (b *Builder) buildTemplate(st *buildState, spec templateSpec, main, baseline *snapshot.School) TemplateReport {
	tr := TemplateReport{
		Name:   spec.name,
		Status: availability(main.Failed(spec.payload), baseline.Failed(spec.payload)),
	}
	if tr.Status == StatusCannotCompare {
		return tr
	}

	mainSet := b.extractQuestions(st, spec, schoolMain, main.Object(spec.payload), &tr)
	baselineSet := b.extractQuestions(st, spec, schoolBaseline, baseline.Object(spec.payload), &tr)

	rows := questions.Compare(mainSet, baselineSet)
	if !b.opts.IncludeMatches {
		rows = questions.Differences(rows)
	}
	for _, row := range rows {
		if !b.match(st, cel.RowVars{
			Entity:   spec.name,
			Section:  string(SectionTemplates),
			Path:     row.Path(),
			Status:   string(row.Status),
			Main:     row.Main,
			Baseline: row.Baseline,
		}) {
			continue
		}
		tr.Rows = append(tr.Rows, row)
	}
	tr.Existence = questions.Existence(mainSet, baselineSet)
	return tr
}

func (b *Builder) extractQuestions(
	st *buildState,
	spec templateSpec,
	school string,
	template map[string]interface{},
	tr *TemplateReport,
) questions.Set {
	if !spec.tree {
		return questions.FromQuestions(template)
	}
	flat := questions.FromChildren(template, b.opts.MaxDepth)
	if flat.Truncated {
		tr.Truncated = true
		st.warn(WarningTemplateTruncated, spec.name, school, "template tree deeper than the depth limit; deeper questions were skipped")
	}
	return flat.Questions
}

func (b *Builder) buildDocument(st *buildState, section Section, payload snapshot.Payload, main, baseline *snapshot.School) DocumentReport {
	dr := DocumentReport{
		Name:   string(payload),
		Status: availability(main.Failed(payload), baseline.Failed(payload)),
	}
	if dr.Status == StatusCannotCompare {
		return dr
	}

	mainDoc := normalize.Document(main.Value(payload), b.opts.Aliases)
	baselineDoc := normalize.Document(baseline.Value(payload), b.opts.Aliases)
	for _, side := range []struct {
		school string
		merged []string
	}{
		{schoolMain, mainDoc.Merged},
		{schoolBaseline, baselineDoc.Merged},
	} {
		for _, key := range side.merged {
			st.warn(WarningAliasCollision, key, side.school,
				"%s holds several aliases of %q; only one of them was compared", payload, key)
		}
	}

	rows := delta.Compare(mainDoc.Value, baselineDoc.Value, "", delta.WithMaxDepth(b.opts.MaxDepth))
	dr.Rows = b.filterRows(st, "", section, rows)
	return dr
}

// filterRows applies the match and filter options to structural rows. An
// empty entity means the entity is the first path segment.
func (b *Builder) filterRows(st *buildState, entity string, section Section, rows []delta.Row) []delta.Row {
	if !b.opts.IncludeMatches {
		rows = delta.Differences(rows)
	}
	var out []delta.Row
	for _, row := range rows {
		rowEntity := entity
		if rowEntity == "" {
			rowEntity, _, _ = strings.Cut(row.Path, ".")
		}
		if !b.match(st, cel.RowVars{
			Entity:   rowEntity,
			Section:  string(section),
			Path:     row.Path,
			Status:   string(row.Status),
			Main:     row.Left,
			Baseline: row.Right,
		}) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// match evaluates the row filter. A row the filter fails on is dropped and
// the first failure is reported as a warning.
func (b *Builder) match(st *buildState, vars cel.RowVars) bool {
	ok, err := b.opts.Filter.Match(vars)
	if err != nil {
		if !st.filterWarned {
			st.filterWarned = true
			st.warn(WarningFilterError, vars.Entity, "", "%v", err)
		}
		b.log.V(1).Info("filter evaluation failed", "path", vars.Path, "error", err.Error())
		return false
	}
	return ok
}

func (b *Builder) summarize(r *Report) {
	s := Summary{
		Entities: map[EntityStatus]int{},
		Rows:     map[delta.Status]int{},
	}
	m := b.opts.Metrics

	observe := func(entity string, section Section, status delta.Status) {
		s.Rows[status]++
		m.ObserveRow(entity, string(section), string(status))
	}

	for _, er := range r.Entities {
		s.Entities[er.Status]++
		m.ObserveEntity(string(er.Status))
		for _, side := range []struct {
			school string
			state  SchoolState
		}{{schoolMain, er.Main}, {schoolBaseline, er.Baseline}} {
			if side.state.Degraded {
				s.Degraded++
				m.ObserveDegradedMap(er.Entity, side.school)
			}
		}
		for _, row := range er.Fields {
			observe(er.Entity, SectionFields, row.Status)
		}
		for _, row := range er.MergeSettings {
			observe(er.Entity, SectionMergeSettings, row.Status)
		}
	}
	for _, tr := range r.Templates {
		for _, row := range tr.Rows {
			observe(tr.Name, SectionTemplates, row.Status)
		}
	}
	for _, dr := range []DocumentReport{r.AttributeMappings, r.IntegrationFilters} {
		section := SectionAttributeMappings
		if dr.Name == string(snapshot.PayloadIntegrationFilters) {
			section = SectionIntegrationFilters
		}
		for _, row := range dr.Rows {
			observe(dr.Name, section, row.Status)
		}
	}
	for _, w := range r.Warnings {
		m.ObserveWarning(string(w.Kind))
	}
	s.Warnings = len(r.Warnings)
	r.Summary = s
}
