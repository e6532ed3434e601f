// Package jobs provides shared Prometheus metrics for the engine's
// background jobs, labeled by job type so one set of collectors covers
// the recompute loop and the cache maintenance paths.
package jobs

import "github.com/prometheus/client_golang/prometheus"

// Metric names.
const (
	MetricRunsTotal   = "engine_job_runs_total"
	MetricRunDuration = "engine_job_run_duration_seconds"
	MetricErrorsTotal = "engine_job_errors_total"
)

// Job type label values.
const (
	TypeRankRecompute   = "rank_recompute"
	TypeCacheRefresh    = "cache_refresh"
	TypeCacheInvalidate = "cache_invalidation"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Reporter is the write-side surface jobs depend on. *Metrics satisfies
// it; holding the interface keeps metrics optional for callers.
type Reporter interface {
	IncRuns(jobType, status string)
	ObserveRunDuration(jobType string, seconds float64)
	IncErrors(jobType, kind string)
}

// Metrics holds the job collectors. Create with NewMetrics and attach
// to a registry with Register.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates unregistered job collectors. Histogram buckets run
// from sub-second cycles up to the 30s cycle timeout.
func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Background job runs by job type and completion status",
			},
			[]string{"job_type", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Background job run duration in seconds by job type",
				Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 30, 60},
			},
			[]string{"job_type"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricErrorsTotal,
				Help: "Background job errors by job type and error kind",
			},
			[]string{"job_type", "kind"},
		),
	}
}

// Register attaches the collectors to reg. Fails on duplicate
// registration.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRuns counts one completed run of a job.
func (m *Metrics) IncRuns(jobType, status string) {
	m.runs.WithLabelValues(jobType, status).Inc()
}

// ObserveRunDuration records how long one run took.
func (m *Metrics) ObserveRunDuration(jobType string, seconds float64) {
	m.duration.WithLabelValues(jobType).Observe(seconds)
}

// IncErrors counts one error within a run; a run can report several.
func (m *Metrics) IncErrors(jobType, kind string) {
	m.errors.WithLabelValues(jobType, kind).Inc()
}

// Collectors returns the underlying collectors for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runs, m.duration, m.errors}
}
