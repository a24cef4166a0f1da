// Package metrics holds the Prometheus instruments of the rate pipeline.
//
// Instruments are registered on a caller-supplied registry so the CLI can
// expose them and tests can inspect a private registry. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rateintel"

// Metrics is the set of pipeline instruments.
type Metrics struct {
	// ProviderRequests counts live provider calls by outcome
	// (ok, http_error, malformed, transport, breaker_open).
	ProviderRequests *prometheus.CounterVec

	// CollectorFallbacks counts synthetic fallbacks by reason.
	CollectorFallbacks *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Recommendations counts batch record outcomes (generated, skipped, failed).
	Recommendations *prometheus.CounterVec

	SuggestionsApplied prometheus.Counter
	ApplyConflicts     prometheus.Counter

	// BatchDuration tracks GenerateRecommendations latency.
	BatchDuration prometheus.Histogram

	// RefreshObservations counts observations stored by refreshes.
	RefreshObservations prometheus.Counter

	// BreakerState mirrors the provider breaker: 0 closed, 1 half-open, 2 open.
	BreakerState prometheus.Gauge
}

// New registers the instruments on reg. A nil reg uses a fresh private
// registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Live rate provider requests by outcome",
		}, []string{"outcome"}),
		CollectorFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_fallbacks_total",
			Help:      "Synthetic data fallbacks by reason",
		}, []string{"reason"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_cache_hits_total",
			Help:      "Provider result cache hits",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_cache_misses_total",
			Help:      "Provider result cache misses",
		}),
		Recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Batch rate records by outcome",
		}, []string{"outcome"}),
		SuggestionsApplied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_applied_total",
			Help:      "Suggestions applied to the rate inventory",
		}),
		ApplyConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_apply_conflicts_total",
			Help:      "Apply attempts on already applied suggestions",
		}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_batch_duration_seconds",
			Help:      "Duration of recommendation batches",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RefreshObservations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_observations_total",
			Help:      "Competitor observations stored by refreshes",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_breaker_state",
			Help:      "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),
	}
}

// RecordProviderRequest counts one provider call.
func (m *Metrics) RecordProviderRequest(outcome string) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(outcome).Inc()
}

// RecordFallback counts one synthetic fallback.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.CollectorFallbacks.WithLabelValues(reason).Inc()
}

// RecordCache counts a cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// RecordBatch records the outcome counts and duration of one batch.
func (m *Metrics) RecordBatch(generated, skipped, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues("generated").Add(float64(generated))
	m.Recommendations.WithLabelValues("skipped").Add(float64(skipped))
	m.Recommendations.WithLabelValues("failed").Add(float64(failed))
	m.BatchDuration.Observe(duration.Seconds())
}

// RecordApply counts an apply attempt. conflict marks a suggestion that was
// already applied.
func (m *Metrics) RecordApply(conflict bool) {
	if m == nil {
		return
	}
	if conflict {
		m.ApplyConflicts.Inc()
		return
	}
	m.SuggestionsApplied.Inc()
}

// RecordRefresh counts stored observations.
func (m *Metrics) RecordRefresh(stored int) {
	if m == nil {
		return
	}
	m.RefreshObservations.Add(float64(stored))
}

// SetBreakerState sets the breaker gauge.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}
