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

package compare_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/delta"
	"github.com/schooldiff/schooldiff/pkg/report"
	"github.com/schooldiff/schooldiff/pkg/selector"
)

var _ = Describe("Compare", func() {
	BeforeEach(func() {
		env.Reset()
	})

	Context("with the snapshots only", func() {
		var r *report.Report

		BeforeEach(func() {
			r = compareJSON()
		})

		It("should select entities from the main school's formatters", func() {
			Expect(r.Selection.Source).To(Equal(selector.SourceFormatters))
			Expect(r.Selection.Entities).To(Equal([]string{"courses", "sections"}))
			Expect(r.Selection.Dropped).To(Equal([]string{"events"}))
			Expect(env.Requests()).To(BeEmpty())
		})

		It("should resolve the course field exceptions through every layer", func() {
			courses := entityReport(r, "courses")
			Expect(courses.Status).To(Equal(report.StatusCompared))

			// createdAt is owned by the platform in both schools
			_, found := fieldRow(courses, "createdAt")
			Expect(found).To(BeFalse())

			row, found := fieldRow(courses, "credits.creditHours.min")
			Expect(found).To(BeTrue())
			Expect(row.Label).To(Equal("Minimum credits"))
			Expect(row.Main).To(Equal(report.Cell{Value: conflict.AlwaysInstitution, Source: report.SourceConfigured}))
			Expect(row.Baseline).To(Equal(report.Cell{Value: conflict.ResolveAsCoursedog, Source: report.SourceDefault}))
			Expect(row.Status).To(Equal(delta.StatusDifferent))

			row, found = fieldRow(courses, "name")
			Expect(found).To(BeTrue())
			Expect(row.Main.Source).To(Equal(report.SourcePlatform))
			Expect(row.Baseline.Value).To(Equal(conflict.AlwaysInstitution))

			Expect(courses.Fields).To(HaveLen(2))
			Expect(courses.MergeSettings).To(BeEmpty())
		})

		It("should not compare sections when both field maps are unavailable", func() {
			sections := entityReport(r, "sections")
			Expect(sections.Status).To(Equal(report.StatusCannotCompare))
			Expect(sections.Fields).To(BeEmpty())
		})

		It("should compare the templates", func() {
			course := templateReport(r, "course")
			Expect(course.Status).To(Equal(report.StatusCompared))
			Expect(course.Rows).To(HaveLen(11))

			program := templateReport(r, "program")
			Expect(program.Rows).To(HaveLen(1))
			Expect(program.Rows[0].QuestionID).To(Equal("catalogDisplayName"))
			Expect(program.Rows[0].Status).To(Equal(delta.StatusDifferent))

			Expect(templateReport(r, "section").Status).To(Equal(report.StatusCannotCompare))
		})

		It("should treat aliased attribute mapping keys as the same key", func() {
			Expect(r.AttributeMappings.Status).To(Equal(report.StatusCompared))
			Expect(r.AttributeMappings.Rows).To(BeEmpty())
		})

		It("should key integration filters by id", func() {
			Expect(r.IntegrationFilters.Rows).To(Equal([]delta.Row{{
				Path:   "sections.term.values.1",
				Left:   "2026SP",
				Status: delta.StatusOnlyLeft,
			}}))
		})

		It("should report data problems as warnings", func() {
			var kinds []report.WarningKind
			for _, w := range r.Warnings {
				kinds = append(kinds, w.Kind)
			}
			Expect(kinds).To(Equal([]report.WarningKind{
				report.WarningDroppedFormatter,
				report.WarningDuplicatePath,
				report.WarningFieldMapFailed,
				report.WarningFieldMapFailed,
			}))
			Expect(r.Summary.Warnings).To(Equal(4))
		})
	})

	Context("when refreshing field maps from the platform", func() {
		It("should fetch only the missing maps and compare sections", func() {
			r := compareJSON(
				"--refresh-field-maps",
				"--platform-url", env.Platform.URL,
				"--platform-token", platformToken,
			)
			Expect(env.Requests()).To(Equal([]string{"/entityFieldExceptions/sections"}))

			sections := entityReport(r, "sections")
			Expect(sections.Status).To(Equal(report.StatusCompared))
			Expect(sections.Main.Degraded).To(BeFalse())
			Expect(sections.Baseline.Degraded).To(BeTrue())

			row, found := fieldRow(sections, "instructorIds")
			Expect(found).To(BeTrue())
			Expect(row.Main).To(Equal(report.Cell{Value: conflict.AlwaysCoursedog, Source: report.SourceConfigured}))
			Expect(row.Baseline.Text()).To(Equal(report.NoRecordFound))

			row, found = fieldRow(sections, "sisId")
			Expect(found).To(BeTrue())
			Expect(row.Main).To(Equal(report.Cell{Value: conflict.AlwaysInstitution, Source: report.SourceGlobal}))

			Expect(sections.Fields).To(HaveLen(3))
			Expect(sections.MergeSettings).To(HaveLen(1))
			Expect(sections.MergeSettings[0].Path).To(Equal("conflictHandlingMethod"))
		})

		It("should degrade when the platform rejects the token", func() {
			r := compareJSON(
				"--refresh-field-maps",
				"--platform-url", env.Platform.URL,
				"--platform-token", "wrong",
			)
			Expect(env.Requests()).To(HaveLen(1))
			Expect(entityReport(r, "sections").Status).To(Equal(report.StatusCannotCompare))
		})
	})

	Context("with a row filter", func() {
		It("should keep only the matching rows", func() {
			r := compareJSON("--filter", `section == "fields" && status == "different"`, "--include-matches")
			Expect(entityReport(r, "courses").Fields).To(HaveLen(2))
			for _, tr := range r.Templates {
				Expect(tr.Rows).To(BeEmpty())
			}
			Expect(r.IntegrationFilters.Rows).To(BeEmpty())
		})
	})

	Context("when rendering markdown", func() {
		It("should write a stable document", func() {
			out := filepath.Join(GinkgoT().TempDir(), "report.md")
			_, err := run("compare", env.MainDir, env.BaselineDir, "--output", out)
			Expect(err).NotTo(HaveOccurred())
			first, err := os.ReadFile(out)
			Expect(err).NotTo(HaveOccurred())

			_, err = run("compare", env.MainDir, env.BaselineDir, "--output", out)
			Expect(err).NotTo(HaveOccurred())
			second, err := os.ReadFile(out)
			Expect(err).NotTo(HaveOccurred())

			Expect(string(second)).To(Equal(string(first)))
			Expect(string(first)).To(ContainSubstring("### courses (compared)"))
			Expect(string(first)).To(ContainSubstring("Minimum credits"))
			Expect(string(first)).To(ContainSubstring("### sections (cannotCompare)"))
		})
	})
})

var _ = Describe("Resolve", func() {
	It("should resolve a field path against the global table", func() {
		stdout, err := run("resolve", "sections", "customFields.secTopicCode", "--school", env.MainDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("sections customFields.secTopicCode: alwaysInstitution (global)"))
	})

	It("should resolve wildcard global entries", func() {
		stdout, err := run("resolve", "sections", "times.3.timeBlockId", "--school", env.BaselineDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("alwaysCoursedog (global)"))
	})
})
