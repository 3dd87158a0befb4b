// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRow("sections", "fields", "different")
	m.ObserveRow("sections", "fields", "different")
	m.ObserveRow("sections", "fields", "match")
	m.ObserveEntity("compared")
	m.ObserveDegradedMap("sections", "main")
	m.ObserveWarning("duplicatePath")
	m.ObservePlatformRequest("sections", "success", 20*time.Millisecond)
	m.SetRunDuration(2 * time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.rowsTotal.WithLabelValues("sections", "fields", "different")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rowsTotal.WithLabelValues("sections", "fields", "match")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.entitiesTotal.WithLabelValues("compared")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.degradedMapsTotal.WithLabelValues("sections", "main")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.warningsTotal.WithLabelValues("duplicatePath")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.platformRequestsTotal.WithLabelValues("sections", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.runDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.platformRequestDuration))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRow("a", "b", "c")
		m.ObserveEntity("compared")
		m.ObserveDegradedMap("a", "main")
		m.ObserveWarning("x")
		m.ObservePlatformRequest("a", "success", time.Second)
		m.SetRunDuration(time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteToTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestMetrics_WriteToTextfile(t *testing.T) {
	m := New()
	m.ObserveEntity("cannotCompare")

	path := filepath.Join(t.TempDir(), "schooldiff.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schooldiff_entities_total{status="cannotCompare"} 1`)

	err = m.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
