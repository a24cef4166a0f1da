// Package collector turns a property and date window into competitor rate
// observations. Live provider data is preferred; any provider failure falls
// back to the deterministic synthetic generator so callers always receive a
// result set and never an error.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/metrics"
	"github.com/ignite/rate-intel/internal/pkg/logger"
	"github.com/ignite/rate-intel/internal/provider"
)

// Fetcher is the live provider capability.
type Fetcher interface {
	Configured() bool
	Fetch(ctx context.Context, req provider.Request) ([]domain.CompetitorObservation, error)
}

// Collector gathers competitor observations.
type Collector struct {
	fetcher   Fetcher
	synthetic *SyntheticGenerator
	cache     *Cache
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// New builds a Collector. fetcher and cache may be nil.
func New(fetcher Fetcher, synthetic *SyntheticGenerator, cache *Cache, log *logger.Logger, m *metrics.Metrics) *Collector {
	if synthetic == nil {
		synthetic = NewSyntheticGenerator(SyntheticConfig{})
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Collector{
		fetcher:   fetcher,
		synthetic: synthetic,
		cache:     cache,
		log:       log.With("component", "collector"),
		metrics:   m,
	}
}

// Collect returns observations for propertyID between start and end
// inclusive, optionally restricted to room type codes.
func (c *Collector) Collect(ctx context.Context, propertyID string, start, end time.Time, roomTypeCodes []string) []domain.CompetitorObservation {
	start, end = domain.TruncateDay(start), domain.TruncateDay(end)

	if c.fetcher == nil || !c.fetcher.Configured() {
		c.metrics.RecordFallback("unconfigured")
		return c.synthetic.Generate(propertyID, start, end, roomTypeCodes)
	}

	key := Key(propertyID, start, end, roomTypeCodes)
	if c.cache != nil {
		obs, hit, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("rate cache read failed", "property_id", propertyID, "error", err)
		}
		c.metrics.RecordCache(hit)
		if hit {
			return obs
		}
	}

	obs, err := c.fetcher.Fetch(ctx, provider.Request{
		PropertyID: propertyID,
		Start:      start,
		End:        end,
		RoomTypes:  roomTypeCodes,
	})
	if err != nil {
		reason := fallbackReason(err)
		c.metrics.RecordFallback(reason)
		c.log.Warn("live rate fetch failed, using synthetic data",
			"property_id", propertyID, "reason", reason, "error", err)
		return c.synthetic.Generate(propertyID, start, end, roomTypeCodes)
	}

	if err := c.cache.Set(ctx, key, obs); err != nil {
		c.log.Warn("rate cache write failed", "property_id", propertyID, "error", err)
	}
	return obs
}

func fallbackReason(err error) string {
	var se *provider.StatusError
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return "breaker_open"
	case errors.Is(err, provider.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &se):
		return "http_error"
	default:
		return "transport"
	}
}
