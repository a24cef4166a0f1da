package pricing

import (
	"context"
	"time"

	"github.com/ignite/rate-intel/internal/domain"
)

// RateStore reads the property's current rate and inventory records.
// Implementations must be safe for concurrent use.
type RateStore interface {
	// ListRates returns rate records matching the filter ordered by date.
	ListRates(ctx context.Context, f RateFilter) ([]domain.RateRecord, error)
}

// RateFilter selects rate records. Start and End are inclusive calendar
// days; empty slices and strings do not filter.
type RateFilter struct {
	PropertyID   string
	Start        time.Time
	End          time.Time
	RoomTypeIDs  []string
	RatePlanIDs  []string
	RoomTypeCode string
}

// SuggestionStore persists suggestions.
type SuggestionStore interface {
	// CreateSuggestion inserts an unapplied suggestion.
	CreateSuggestion(ctx context.Context, s *domain.Suggestion) error

	// GetSuggestion returns ErrSuggestionNotFound if id does not exist.
	GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error)

	// ListSuggestions returns suggestions ordered by stay date then creation.
	ListSuggestions(ctx context.Context, f SuggestionFilter) ([]domain.Suggestion, error)

	// ApplySuggestion marks the suggestion applied and writes its suggested
	// rate into the targeted rate record as one atomic step. The applied
	// flag is changed only if it is still false, so of two concurrent calls
	// exactly one succeeds and the other gets ErrSuggestionAlreadyApplied.
	// Returns ErrSuggestionNotFound or ErrRateNotFound without changes.
	ApplySuggestion(ctx context.Context, id, actorID string, at time.Time) (*domain.Suggestion, error)
}

// SuggestionFilter selects suggestions. A nil Applied matches both states.
type SuggestionFilter struct {
	PropertyID string
	Start      time.Time
	End        time.Time
	Applied    *bool
	Limit      int
}

// ObservationStore keeps the raw competitor snapshots taken by refreshes.
type ObservationStore interface {
	// SaveObservations appends one snapshot and returns the rows written.
	SaveObservations(ctx context.Context, propertyID string, collectedAt time.Time, obs []domain.CompetitorObservation) (int, error)

	// ListObservations returns the observations of the most recent snapshot
	// for the room type and day.
	ListObservations(ctx context.Context, f ObservationFilter) ([]domain.CompetitorObservation, error)
}

// ObservationFilter selects stored observations for one room type and day.
type ObservationFilter struct {
	PropertyID   string
	Date         time.Time
	RoomTypeCode string
}

// Collector produces competitor observations; it never fails.
type Collector interface {
	Collect(ctx context.Context, propertyID string, start, end time.Time, roomTypeCodes []string) []domain.CompetitorObservation
}

// Archiver stores a raw refresh snapshot outside the database.
type Archiver interface {
	Archive(ctx context.Context, propertyID string, collectedAt time.Time, obs []domain.CompetitorObservation) (string, error)
}
