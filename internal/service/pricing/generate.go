package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/rate-intel/internal/domain"
)

// GenerateRequest selects the rate records to price.
type GenerateRequest struct {
	PropertyID  string
	Start       time.Time
	End         time.Time
	RoomTypeIDs []string
	RatePlanIDs []string
}

type recordOutcome struct {
	rec          *domain.RateRecommendation
	suggestionID string
	err          error
}

// GenerateRecommendations prices every current rate record in the request.
// Records are processed independently on a bounded worker pool; a record
// that fails is reported and never aborts the batch. Only a failure to load
// the rate records themselves is returned as an error.
func (s *Service) GenerateRecommendations(ctx context.Context, req GenerateRequest) (*domain.BatchReport, error) {
	if req.PropertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrInvalidRequest)
	}
	if req.Start.IsZero() || req.End.IsZero() || req.End.Before(req.Start) {
		return nil, fmt.Errorf("%w: invalid date range", ErrInvalidRequest)
	}
	start, end := domain.TruncateDay(req.Start), domain.TruncateDay(req.End)
	began := s.now()

	records, err := s.rates.ListRates(ctx, RateFilter{
		PropertyID:  req.PropertyID,
		Start:       start,
		End:         end,
		RoomTypeIDs: req.RoomTypeIDs,
		RatePlanIDs: req.RatePlanIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("load rate records: %w", err)
	}

	report := &domain.BatchReport{
		PropertyID:      req.PropertyID,
		Requested:       len(records),
		Recommendations: []domain.RateRecommendation{},
		SuggestionIDs:   []string{},
		Failures:        []domain.RecordFailure{},
	}
	if len(records) == 0 {
		s.log.Info("no rate records to price", "property_id", req.PropertyID,
			"start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))
		return report, nil
	}

	history := s.loadHistory(ctx, req, start)
	observations := s.collector.Collect(ctx, req.PropertyID, start, end, roomTypeCodes(records))

	outcomes := make([]recordOutcome, len(records))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i := range records {
		g.Go(func() error {
			outcomes[i] = s.priceRecord(ctx, records[i], observations, history[records[i].RoomTypeID])
			return nil
		})
	}
	g.Wait()

	for i, o := range outcomes {
		r := records[i]
		switch {
		case o.err != nil:
			s.log.Error("rate record failed", "property_id", r.PropertyID, "record_id", r.ID,
				"room_type", r.RoomTypeCode, "date", r.Date.Format(domain.DateLayout), "error", o.err)
			report.Failures = append(report.Failures, domain.RecordFailure{
				RecordID:     r.ID,
				RoomTypeCode: r.RoomTypeCode,
				Date:         r.Date,
				Reason:       o.err.Error(),
			})
		case o.rec == nil:
			report.Skipped++
		default:
			report.Recommendations = append(report.Recommendations, *o.rec)
			report.SuggestionIDs = append(report.SuggestionIDs, o.suggestionID)
		}
	}

	elapsed := s.now().Sub(began)
	s.metrics.RecordBatch(len(report.Recommendations), report.Skipped, len(report.Failures), elapsed)
	s.log.Info("recommendation batch complete", "property_id", req.PropertyID,
		"requested", report.Requested, "generated", len(report.Recommendations),
		"skipped", report.Skipped, "failed", len(report.Failures), "elapsed", elapsed)
	return report, nil
}

func (s *Service) priceRecord(ctx context.Context, r domain.RateRecord, obs []domain.CompetitorObservation, history []domain.RateRecord) recordOutcome {
	if err := ctx.Err(); err != nil {
		return recordOutcome{err: err}
	}

	rec, err := s.synth.Synthesize(r, obs, s.synth.BuildPerformance(history))
	if err != nil {
		return recordOutcome{err: fmt.Errorf("synthesize: %w", err)}
	}
	if rec == nil {
		return recordOutcome{}
	}

	sg := domain.NewSuggestion(s.newID(), *rec, s.now().UTC())
	if err := s.suggestions.CreateSuggestion(ctx, &sg); err != nil {
		return recordOutcome{err: fmt.Errorf("persist suggestion: %w", err)}
	}
	return recordOutcome{rec: rec, suggestionID: sg.ID}
}

// loadHistory reads the HistoryDays before start and groups one record per
// room type and day, since inventory is shared across rate plans. History
// is advisory; a read failure yields no history.
func (s *Service) loadHistory(ctx context.Context, req GenerateRequest, start time.Time) map[string][]domain.RateRecord {
	out := map[string][]domain.RateRecord{}
	if s.cfg.HistoryDays == 0 {
		return out
	}

	past, err := s.rates.ListRates(ctx, RateFilter{
		PropertyID:  req.PropertyID,
		Start:       start.AddDate(0, 0, -s.cfg.HistoryDays),
		End:         start.AddDate(0, 0, -1),
		RoomTypeIDs: req.RoomTypeIDs,
	})
	if err != nil {
		s.log.Warn("history unavailable", "property_id", req.PropertyID, "error", err)
		return out
	}

	seen := map[string]bool{}
	for _, r := range past {
		key := r.RoomTypeID + "|" + r.Date.Format(domain.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out[r.RoomTypeID] = append(out[r.RoomTypeID], r)
	}
	return out
}

func roomTypeCodes(records []domain.RateRecord) []string {
	set := map[string]bool{}
	for _, r := range records {
		set[r.RoomTypeCode] = true
	}
	codes := make([]string, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
