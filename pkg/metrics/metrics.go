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
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters of one schooldiff run. Every method is a
// no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// rowsTotal tracks the report rows per entity, report section and status
	rowsTotal *prometheus.CounterVec
	// entitiesTotal tracks the compared entity types per entity status
	entitiesTotal *prometheus.CounterVec
	// degradedMapsTotal tracks field exception maps assembled without a
	// usable API response
	degradedMapsTotal *prometheus.CounterVec
	warningsTotal     *prometheus.CounterVec
	// platformRequestsTotal tracks platform calls per entity and outcome
	platformRequestsTotal *prometheus.CounterVec
	// tracking the duration of platform calls per entity
	platformRequestDuration *prometheus.HistogramVec
	runDuration             prometheus.Gauge
}

// New returns Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schooldiff_rows_total",
				Help: "Total number of report rows per entity, section and status",
			},
			[]string{"entity", "section", "status"},
		),
		entitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schooldiff_entities_total",
				Help: "Total number of entity types per comparison status",
			},
			[]string{"status"},
		),
		degradedMapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schooldiff_degraded_field_maps_total",
				Help: "Total number of field exception maps built without API data per entity and school",
			},
			[]string{"entity", "school"},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schooldiff_warnings_total",
				Help: "Total number of report warnings per kind",
			},
			[]string{"kind"},
		),
		platformRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schooldiff_platform_requests_total",
				Help: "Total number of platform API requests per entity and outcome",
			},
			[]string{"entity", "outcome"},
		),
		platformRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schooldiff_platform_request_duration_seconds",
				Help:    "Duration of platform API requests per entity",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "schooldiff_run_duration_seconds",
				Help: "Duration of the last comparison run",
			},
		),
	}

	m.registry.MustRegister(
		m.rowsTotal,
		m.entitiesTotal,
		m.degradedMapsTotal,
		m.warningsTotal,
		m.platformRequestsTotal,
		m.platformRequestDuration,
		m.runDuration,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRow(entity, section, status string) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(entity, section, status).Inc()
}

func (m *Metrics) ObserveEntity(status string) {
	if m == nil {
		return
	}
	m.entitiesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveDegradedMap(entity, school string) {
	if m == nil {
		return
	}
	m.degradedMapsTotal.WithLabelValues(entity, school).Inc()
}

func (m *Metrics) ObserveWarning(kind string) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(kind).Inc()
}

// ObservePlatformRequest records one platform call and how long it took.
func (m *Metrics) ObservePlatformRequest(entity, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.platformRequestsTotal.WithLabelValues(entity, outcome).Inc()
	m.platformRequestDuration.WithLabelValues(entity).Observe(elapsed.Seconds())
}

func (m *Metrics) SetRunDuration(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(elapsed.Seconds())
}

// WriteToTextfile writes the metrics in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
