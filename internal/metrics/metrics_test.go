package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordBatch(3, 1, 2, 250*time.Millisecond)
	m.RecordBatch(1, 0, 0, time.Second)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("generated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BatchDuration))
}

func TestRecordApply(t *testing.T) {
	m := New(nil)

	m.RecordApply(false)
	m.RecordApply(false)
	m.RecordApply(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SuggestionsApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApplyConflicts))
}

func TestProviderAndCollectorCounters(t *testing.T) {
	m := New(nil)

	m.RecordProviderRequest("ok")
	m.RecordProviderRequest("breaker_open")
	m.RecordFallback("unconfigured")
	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	m.SetBreakerState(2)
	m.RecordRefresh(12)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("breaker_open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollectorFallbacks.WithLabelValues("unconfigured")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.RefreshObservations))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordProviderRequest("ok")
		m.RecordFallback("x")
		m.RecordCache(true)
		m.RecordBatch(1, 1, 1, time.Second)
		m.RecordApply(true)
		m.RecordRefresh(1)
		m.SetBreakerState(1)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { New(reg) })
	assert.Panics(t, func() { New(reg) })
}
