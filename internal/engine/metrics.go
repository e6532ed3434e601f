package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRecalcTotal            = "rank_recalculations_total"
	MetricRecalcErrors           = "rank_recalculation_errors_total"
	MetricRecalcDuration         = "rank_recalculation_duration_seconds"
	MetricVotesCast              = "rank_votes_cast_total"
	MetricLastRecomputeTimestamp = "rank_last_recompute_timestamp"
	MetricLastRecomputeDealCount = "rank_last_recompute_deal_count"
)

// Metrics contains Prometheus metrics for ranking recalculation.
// All operations are thread-safe.
type Metrics struct {
	recalcTotal            prometheus.Counter
	recalcErrors           prometheus.Counter
	recalcDuration         prometheus.Histogram
	votesCast              *prometheus.CounterVec
	lastRecomputeTimestamp prometheus.Gauge
	lastRecomputeDealCount prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call Register
// to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recalcTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecalcTotal,
			Help: "Total number of deal score recalculations",
		}),
		recalcErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecalcErrors,
			Help: "Total number of failed deal score recalculations",
		}),
		recalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecalcDuration,
			Help:    "Histogram of deal score recalculation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}),
		votesCast: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricVotesCast,
				Help: "Total number of votes cast by vote type",
			},
			[]string{"vote_type"},
		),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRecomputeTimestamp,
			Help: "Unix timestamp of the last batch recompute cycle",
		}),
		lastRecomputeDealCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRecomputeDealCount,
			Help: "Number of deals processed in the last batch recompute cycle",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecalcTotal increments the recalculation total counter.
func (m *Metrics) IncRecalcTotal() {
	m.recalcTotal.Inc()
}

// IncRecalcErrors increments the recalculation errors counter.
func (m *Metrics) IncRecalcErrors() {
	m.recalcErrors.Inc()
}

// ObserveRecalcDuration records a recalculation duration sample.
func (m *Metrics) ObserveRecalcDuration(seconds float64) {
	m.recalcDuration.Observe(seconds)
}

// IncVotesCast increments the votes cast counter for a vote type.
func (m *Metrics) IncVotesCast(voteType string) {
	m.votesCast.WithLabelValues(voteType).Inc()
}

// SetLastRecomputeTimestamp sets the last batch recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(timestamp float64) {
	m.lastRecomputeTimestamp.Set(timestamp)
}

// SetLastRecomputeDealCount sets the last batch recompute deal count gauge.
func (m *Metrics) SetLastRecomputeDealCount(count float64) {
	m.lastRecomputeDealCount.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recalcTotal,
		m.recalcErrors,
		m.recalcDuration,
		m.votesCast,
		m.lastRecomputeTimestamp,
		m.lastRecomputeDealCount,
	}
}
