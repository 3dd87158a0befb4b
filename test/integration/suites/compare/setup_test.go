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
	"bytes"
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schooldiff/schooldiff/cmd/schooldiff/commands"
	"github.com/schooldiff/schooldiff/pkg/report"
	"github.com/schooldiff/schooldiff/test/integration/environment"
)

const platformToken = "integration-token"

var env *environment.Environment

func TestCompare(t *testing.T) {
	RegisterFailHandler(Fail)
	BeforeSuite(func() {
		var err error
		env, err = environment.New("testdata", environment.PlatformConfig{
			Token: platformToken,
			FieldMaps: map[string]map[string]string{
				"sections": {
					"sisId": "resolveAsCoursedog",
					"title": "alwaysCoursedog",
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})
	AfterSuite(func() {
		Expect(env.Stop()).To(Succeed())
	})

	RunSpecs(t, "Compare Suite")
}

// run executes the command line tool and returns its stdout.
func run(args ...string) (string, error) {
	cmd := commands.NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	GinkgoWriter.Print(stderr.String())
	return stdout.String(), err
}

// compareJSON runs a comparison of the environment snapshots and decodes the
// JSON report.
func compareJSON(extra ...string) *report.Report {
	args := append([]string{"compare", env.MainDir, env.BaselineDir, "--format", "json"}, extra...)
	stdout, err := run(args...)
	Expect(err).NotTo(HaveOccurred())

	r := &report.Report{}
	Expect(json.Unmarshal([]byte(stdout), r)).To(Succeed())
	return r
}

func entityReport(r *report.Report, entity string) report.EntityReport {
	for _, er := range r.Entities {
		if er.Entity == entity {
			return er
		}
	}
	Fail("entity " + entity + " not in report")
	return report.EntityReport{}
}

func fieldRow(er report.EntityReport, path string) (report.FieldRow, bool) {
	for _, row := range er.Fields {
		if row.Path == path {
			return row, true
		}
	}
	return report.FieldRow{}, false
}

func templateReport(r *report.Report, name string) report.TemplateReport {
	for _, tr := range r.Templates {
		if tr.Name == name {
			return tr
		}
	}
	Fail("template " + name + " not in report")
	return report.TemplateReport{}
}
