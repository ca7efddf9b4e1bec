// Package metrics defines the Prometheus collectors recorded during a test
// selection run and writes them out in the node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for one process.
type Metrics struct {
	QueriesTotal        *prometheus.CounterVec
	HitsPerQuery        prometheus.Histogram
	SelectedTests       prometheus.Gauge
	DocsInsertedTotal   prometheus.Counter
	DocsRemovedTotal    prometheus.Counter
	FilesParsedTotal    *prometheus.CounterVec
	IndexRefreshTotal   *prometheus.CounterVec
	IndexRefreshLatency prometheus.Histogram
	PhaseDuration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them on reg. A nil reg gets a
// fresh private registry so repeated construction in one process is safe.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rts_queries_total",
				Help: "Retrieval queries issued by result type (hit, zero_result, bad_query).",
			},
			[]string{"result_type"},
		),
		HitsPerQuery: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rts_hits_per_query",
				Help:    "Number of test documents returned per query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		SelectedTests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rts_selected_tests",
				Help: "Size of the selected test set of the last run.",
			},
		),
		DocsInsertedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rts_docs_inserted_total",
				Help: "Test documents inserted into the index.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rts_docs_removed_total",
				Help: "Test documents removed from the index.",
			},
		),
		FilesParsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rts_files_parsed_total",
				Help: "Source files parsed by status (ok, failed).",
			},
			[]string{"status"},
		),
		IndexRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rts_index_refresh_total",
				Help: "Index refresh operations by status.",
			},
			[]string{"status"},
		),
		IndexRefreshLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rts_index_refresh_seconds",
				Help:    "Time to commit pending writes and reopen the read snapshot.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rts_phase_duration_seconds",
				Help:    "Duration of selection pipeline phases.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"phase"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.HitsPerQuery,
		m.SelectedTests,
		m.DocsInsertedTotal,
		m.DocsRemovedTotal,
		m.FilesParsedTotal,
		m.IndexRefreshTotal,
		m.IndexRefreshLatency,
		m.PhaseDuration,
	)

	return m
}

// WriteTextfile writes every registered collector to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
