package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dietkaro"

// Metrics holds the Prometheus instruments of the validation and compliance
// engines. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheLookups       *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	ComplianceScores   *prometheus.CounterVec
	ScoreConflicts     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "validation_cache",
			Name:      "lookups_total",
			Help:      "Validation cache lookups by result (hit, miss).",
		}, []string{"result"}),
		CacheInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "validation_cache",
			Name:      "invalidations_total",
			Help:      "Validation cache invalidations by scope (client, all).",
		}, []string{"scope"}),
		ValidationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "validation",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of validate and validateBatch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		ComplianceScores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compliance",
			Name:      "scores_total",
			Help:      "Meal logs scored by resulting color.",
		}, []string{"color"}),
		ScoreConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compliance",
			Name:      "write_conflicts_total",
			Help:      "Conditional compliance writes that lost to a concurrent update.",
		}),
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) invalidated(scope string) {
	if m != nil {
		m.CacheInvalidations.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) observe(op string, start time.Time) {
	if m != nil {
		m.ValidationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) scored(color string) {
	if m != nil {
		m.ComplianceScores.WithLabelValues(color).Inc()
	}
}

func (m *Metrics) conflict() {
	if m != nil {
		m.ScoreConflicts.Inc()
	}
}
