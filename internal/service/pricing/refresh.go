package pricing

import (
	"context"
	"fmt"

	"github.com/ignite/rate-intel/internal/domain"
)

// RefreshCompetitorData collects the forward window for a property and
// stores the raw observations, archiving the snapshot when an archiver is
// configured. It never returns an error: failures are logged and listed in
// the report. Stored is set only when at least one observation was written. When another refresh of the same property holds the lock the
// call is skipped.
func (s *Service) RefreshCompetitorData(ctx context.Context, propertyID string) *domain.RefreshReport {
	now := s.now().UTC()
	start := domain.TruncateDay(now)
	end := start.AddDate(0, 0, s.cfg.RefreshWindowDays-1)
	report := &domain.RefreshReport{PropertyID: propertyID, Start: start, End: end}
	log := s.log.With("property_id", propertyID)

	fail := func(step string, err error) {
		log.Error("refresh "+step+" failed", "error", err)
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", step, err))
	}

	if propertyID == "" {
		fail("validate", ErrInvalidRequest)
		return report
	}

	if s.locks != nil {
		lock := s.locks.New("refresh:" + propertyID)
		ok, err := lock.Acquire(ctx)
		switch {
		case err != nil:
			fail("lock", err)
			return report
		case !ok:
			log.Info("refresh already running, skipping")
			report.SkippedLock = true
			return report
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("refresh lock release failed", "error", err)
			}
		}()
	}

	obs := s.collector.Collect(ctx, propertyID, start, end, nil)
	report.Observations = len(obs)

	switch {
	case s.observations == nil:
		fail("store", ErrNoObservationStore)
	case len(obs) == 0:
		log.Warn("refresh collected no observations")
	default:
		if n, err := s.observations.SaveObservations(ctx, propertyID, now, obs); err != nil {
			fail("store", err)
		} else {
			report.Stored = n > 0
			s.metrics.RecordRefresh(n)
		}
	}

	if s.archiver != nil && len(obs) > 0 {
		if key, err := s.archiver.Archive(ctx, propertyID, now, obs); err != nil {
			fail("archive", err)
		} else {
			report.Archived = true
			log.Debug("refresh snapshot archived", "key", key)
		}
	}

	log.Info("competitor data refreshed", "observations", report.Observations,
		"stored", report.Stored, "archived", report.Archived)
	return report
}
