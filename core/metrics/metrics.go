package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orgunit"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDryRun  = "dry_run"
)

// SyncMetrics records sync and export runs. A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	runs     *prometheus.CounterVec
	changes  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  prometheus.Gauge
}

// NewSyncMetrics creates the collectors and registers them with reg.
func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	m := &SyncMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Counter of sync and export runs by outcome.",
			}, []string{"operation", "outcome"}),
		changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "changes_total",
				Help:      "Counter of records applied by committed syncs.",
			}, []string{"action"}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Bucketed histogram of run durations.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			}, []string{"operation"}),
		records: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Number of records in the store after the last successful run.",
			}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.changes, m.duration, m.records} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveSync records a sync run. Change counters only move for committed runs.
func (m *SyncMetrics) ObserveSync(outcome string, inserted, updated, deleted, total int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("sync", outcome).Inc()
	m.duration.WithLabelValues("sync").Observe(elapsed.Seconds())
	if outcome != OutcomeSuccess {
		return
	}
	m.changes.WithLabelValues("insert").Add(float64(inserted))
	m.changes.WithLabelValues("update").Add(float64(updated))
	m.changes.WithLabelValues("delete").Add(float64(deleted))
	m.records.Set(float64(total))
}

// ObserveExport records an export run.
func (m *SyncMetrics) ObserveExport(outcome string, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("export", outcome).Inc()
	m.duration.WithLabelValues("export").Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		m.records.Set(float64(records))
	}
}
