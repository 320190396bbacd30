// Package metrics exposes check-in counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	outcomes          *prometheus.CounterVec
	duration          prometheus.Histogram
	promotionFailures prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_outcomes_total",
			Help: "Check-in requests by outcome and verification method.",
		}, []string{"outcome", "method"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkin_duration_seconds",
			Help:    "Time to process a check-in request.",
			Buckets: prometheus.DefBuckets,
		}),
		promotionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "event_promotion_failures_total",
			Help: "Inline upcoming to ongoing promotions that failed.",
		}),
	}
}

func (m *Metrics) ObserveCheckIn(outcome, method string, d time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome, method).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) PromotionFailed() {
	if m == nil {
		return
	}
	m.promotionFailures.Inc()
}
