// Package metrics records pipeline run statistics in Prometheus form.
//
// A Recorder owns its registry, so one process may hold several without
// clashing. All methods are safe on a nil *Recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "po_consolidator"

// Recorder holds the pipeline collectors.
type Recorder struct {
	registry *prometheus.Registry

	files           *prometheus.CounterVec
	runs            *prometheus.CounterVec
	rows            prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	matchPercentage prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Input files processed, by outcome (accepted, rejected).",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome (success, partial, failed).",
		}, []string{"outcome"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_consolidated_total",
			Help:      "Rows written to the consolidated dataset.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		matchPercentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "match_percentage",
			Help:      "Catalog match percentage of the most recent run.",
		}),
	}
	r.registry.MustRegister(r.files, r.runs, r.rows, r.stageDuration, r.matchPercentage)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileAccepted counts a file that made it into the consolidated dataset.
func (r *Recorder) FileAccepted() {
	if r == nil {
		return
	}
	r.files.WithLabelValues("accepted").Inc()
}

// FileRejected counts a file skipped with a per-file error.
func (r *Recorder) FileRejected() {
	if r == nil {
		return
	}
	r.files.WithLabelValues("rejected").Inc()
}

// RunFinished counts a run by outcome.
func (r *Recorder) RunFinished(outcome string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
}

// RowsConsolidated adds n consolidated rows.
func (r *Recorder) RowsConsolidated(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.rows.Add(float64(n))
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetMatchPercentage records the latest match percentage.
func (r *Recorder) SetMatchPercentage(pct float64) {
	if r == nil {
		return
	}
	r.matchPercentage.Set(pct)
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
