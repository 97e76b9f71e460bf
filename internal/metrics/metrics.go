// Package metrics records per-run Prometheus metrics and writes them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// Metrics holds the collectors for one run
type Metrics struct {
	registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec // files by status (ok/failed)
	sweepsParsed   prometheus.Counter     // sweep rows parsed across all files
	candidates     *prometheus.GaugeVec   // candidate count per file
	baseline       *prometheus.GaugeVec   // median baseline per file
	threshold      *prometheus.GaugeVec   // detection threshold per file
	duration       prometheus.Histogram   // wall time per file
	lastRun        prometheus.Gauge       // unix time the run finished
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		filesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tscm_files_processed_total",
			Help: "Sweep logs processed, by status",
		}, []string{"status"}),
		sweepsParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tscm_sweeps_parsed_total",
			Help: "Sweep rows parsed from successfully processed logs",
		}),
		candidates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tscm_candidates",
			Help: "Candidate frequencies flagged in a sweep log",
		}, []string{"file"}),
		baseline: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tscm_baseline_db",
			Help: "Median of per-frequency average power in a sweep log",
		}, []string{"file"}),
		threshold: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tscm_threshold_db",
			Help: "Candidate selection threshold in a sweep log",
		}, []string{"file"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tscm_file_processing_seconds",
			Help:    "Time spent processing one sweep log",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tscm_last_run_timestamp_seconds",
			Help: "Unix time the last batch run finished",
		}),
	}
}

// ObserveFile records the outcome of one file. Safe on a nil receiver.
func (m *Metrics) ObserveFile(r *models.FileReport) {
	if m == nil || r == nil {
		return
	}

	m.filesProcessed.WithLabelValues(r.Status).Inc()
	m.duration.Observe(r.Duration.Seconds())
	if r.Status != models.StatusOK {
		return
	}

	m.sweepsParsed.Add(float64(r.Rows))
	m.candidates.WithLabelValues(r.Label).Set(float64(r.Candidates))
	m.baseline.WithLabelValues(r.Label).Set(r.BaselineDB)
	m.threshold.WithLabelValues(r.Label).Set(r.ThresholdDB)
}

// ObserveRun records the end of a batch run. Safe on a nil receiver.
func (m *Metrics) ObserveRun(s *models.BatchSummary) {
	if m == nil || s == nil {
		return
	}
	finished := s.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	m.lastRun.Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path atomically
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
