package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/market"
	"github.com/ignite/rate-intel/internal/metrics"
	"github.com/ignite/rate-intel/internal/pkg/distlock"
	"github.com/ignite/rate-intel/internal/pkg/logger"
	"github.com/ignite/rate-intel/internal/recommend"
)

// Deps are the capabilities the service works with. Rates, Suggestions,
// Observations and Collector are required; the rest are optional.
type Deps struct {
	Rates        RateStore
	Suggestions  SuggestionStore
	Observations ObservationStore
	Collector    Collector
	Analyzer     *market.Analyzer
	Synthesizer  *recommend.Synthesizer
	Locks        *distlock.Provider
	Archiver     Archiver
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
}

// Config sizes the pipeline.
type Config struct {
	// Workers bounds concurrent per-record synthesis.
	Workers int
	// RefreshWindowDays is the forward window collected by a refresh.
	RefreshWindowDays int
	// HistoryDays is how far back before the batch start occupancy history
	// is read. Zero disables history.
	HistoryDays int
}

// DefaultConfig returns 4 workers, a 30 day refresh window and 28 days of
// history.
func DefaultConfig() Config {
	return Config{Workers: 4, RefreshWindowDays: 30, HistoryDays: 28}
}

// Service implements the rate pipeline. All public methods are safe for
// concurrent use if the underlying stores are.
type Service struct {
	rates        RateStore
	suggestions  SuggestionStore
	observations ObservationStore
	collector    Collector
	analyzer     *market.Analyzer
	synth        *recommend.Synthesizer
	locks        *distlock.Provider
	archiver     Archiver
	log          *logger.Logger
	metrics      *metrics.Metrics
	cfg          Config

	now   func() time.Time
	newID func() string
}

// NewService creates a pricing service.
func NewService(d Deps, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.RefreshWindowDays <= 0 {
		cfg.RefreshWindowDays = def.RefreshWindowDays
	}
	if cfg.HistoryDays < 0 {
		cfg.HistoryDays = 0
	}
	if d.Analyzer == nil {
		d.Analyzer = market.NewAnalyzer(market.DefaultPolicy())
	}
	if d.Synthesizer == nil {
		d.Synthesizer = recommend.NewSynthesizer(d.Analyzer, recommend.DefaultWeights())
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Service{
		rates:        d.Rates,
		suggestions:  d.Suggestions,
		observations: d.Observations,
		collector:    d.Collector,
		analyzer:     d.Analyzer,
		synth:        d.Synthesizer,
		locks:        d.Locks,
		archiver:     d.Archiver,
		log:          d.Logger.With("component", "pricing"),
		metrics:      d.Metrics,
		cfg:          cfg,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// ApplySuggestion marks a suggestion applied by actorID and writes its
// suggested rate to the targeted rate record. It fails with
// ErrSuggestionNotFound, ErrSuggestionAlreadyApplied or ErrRateNotFound.
func (s *Service) ApplySuggestion(ctx context.Context, suggestionID, actorID string) (*domain.Suggestion, error) {
	if suggestionID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: suggestion id and actor are required", ErrInvalidRequest)
	}

	sg, err := s.suggestions.ApplySuggestion(ctx, suggestionID, actorID, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrSuggestionAlreadyApplied) {
			s.metrics.RecordApply(true)
			s.log.Warn("suggestion already applied", "suggestion_id", suggestionID, "actor", actorID)
		}
		return nil, err
	}

	s.metrics.RecordApply(false)
	s.log.Info("suggestion applied", "suggestion_id", suggestionID, "actor", actorID,
		"property_id", sg.PropertyID, "room_type_id", sg.RoomTypeID,
		"date", sg.Date.Format(domain.DateLayout), "rate", sg.SuggestedRate.String())
	return sg, nil
}

// GetSuggestion returns one suggestion.
func (s *Service) GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: suggestion id is required", ErrInvalidRequest)
	}
	return s.suggestions.GetSuggestion(ctx, id)
}

// ListSuggestions returns a property's suggestions.
func (s *Service) ListSuggestions(ctx context.Context, f SuggestionFilter) ([]domain.Suggestion, error) {
	if f.PropertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrInvalidRequest)
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidRequest)
	}
	return s.suggestions.ListSuggestions(ctx, f)
}
