package provider

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/metrics"
	"github.com/ignite/rate-intel/internal/pkg/logger"
)

// BreakerConfig tunes the provider circuit breaker. Zero values take the
// defaults: trip at a 60% failure ratio over at least 5 requests counted in
// a 1 minute window, probe again after 2 minutes with 1 request.
type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

func (b BreakerConfig) withDefaults() BreakerConfig {
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = 0.6
	}
	if b.Interval <= 0 {
		b.Interval = time.Minute
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = 2 * time.Minute
	}
	if b.HalfOpenMax == 0 {
		b.HalfOpenMax = 1
	}
	return b
}

func newBreaker(cfg BreakerConfig, log *logger.Logger, m *metrics.Metrics) *gobreaker.CircuitBreaker[[]domain.CompetitorObservation] {
	cfg = cfg.withDefaults()
	m.SetBreakerState(int(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[[]domain.CompetitorObservation](gobreaker.Settings{
		Name:        "rate-provider",
		MaxRequests: cfg.HalfOpenMax,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(int(to))
		},
	})
}
