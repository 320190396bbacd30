package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveCheckIn(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCheckIn("success", "rfid", 5*time.Millisecond)
	m.ObserveCheckIn("success", "rfid", 7*time.Millisecond)
	m.ObserveCheckIn("already_checked_in", "manual", time.Millisecond)
	m.PromotionFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("success", "rfid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("already_checked_in", "manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotionFailures))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheckIn("success", "manual", time.Second)
		m.PromotionFailed()
	})
}
