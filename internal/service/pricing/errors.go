package pricing

import "errors"

// Sentinel errors for the pricing service layer.
var (
	ErrNoCompetitorData         = errors.New("no competitor data")
	ErrSuggestionNotFound       = errors.New("suggestion not found")
	ErrSuggestionAlreadyApplied = errors.New("suggestion already applied")
	ErrRateNotFound             = errors.New("rate record not found")
	ErrInvalidRequest           = errors.New("invalid request")
	ErrNoObservationStore       = errors.New("observation store not configured")
)
