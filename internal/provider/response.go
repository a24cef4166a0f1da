package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/rate-intel/internal/domain"
)

// wire shape: {competitors: [{id, name, rates: [{roomType, amount, currency?, date, available?}]}]}
type ratesResponse struct {
	Competitors *[]competitorPayload `json:"competitors"`
}

type competitorPayload struct {
	ID    flexibleID     `json:"id"`
	Name  *string        `json:"name"`
	Rates *[]ratePayload `json:"rates"`
}

type ratePayload struct {
	RoomType  *string          `json:"roomType"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  *string          `json:"currency"`
	Date      *string          `json:"date"`
	Available *bool            `json:"available"`
}

// flexibleID accepts a JSON string or number.
type flexibleID struct {
	value string
	set   bool
}

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.value, f.set = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	f.value, f.set = n.String(), true
	return nil
}

// parseRates decodes a provider body into observations. Any deviation from
// the expected shape is an ErrMalformedResponse.
func parseRates(body []byte) ([]domain.CompetitorObservation, error) {
	var resp ratesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed("decode: %v", err)
	}
	if resp.Competitors == nil {
		return nil, malformed("missing competitors")
	}

	var out []domain.CompetitorObservation
	for i, c := range *resp.Competitors {
		if !c.ID.set || c.ID.value == "" {
			return nil, malformed("competitor %d: missing id", i)
		}
		if c.Name == nil || strings.TrimSpace(*c.Name) == "" {
			return nil, malformed("competitor %s: missing name", c.ID.value)
		}
		if c.Rates == nil {
			return nil, malformed("competitor %s: missing rates", c.ID.value)
		}
		for j, r := range *c.Rates {
			obs, err := normalizeRate(c.ID.value, *c.Name, r)
			if err != nil {
				return nil, malformed("competitor %s rate %d: %v", c.ID.value, j, err)
			}
			out = append(out, obs)
		}
	}
	return out, nil
}

func normalizeRate(id, name string, r ratePayload) (domain.CompetitorObservation, error) {
	if r.RoomType == nil || strings.TrimSpace(*r.RoomType) == "" {
		return domain.CompetitorObservation{}, errField("roomType")
	}
	if r.Amount == nil {
		return domain.CompetitorObservation{}, errField("amount")
	}
	if r.Amount.IsNegative() {
		return domain.CompetitorObservation{}, errValue("amount", r.Amount.String())
	}
	if r.Date == nil {
		return domain.CompetitorObservation{}, errField("date")
	}
	date, err := parseDate(*r.Date)
	if err != nil {
		return domain.CompetitorObservation{}, errValue("date", *r.Date)
	}

	currency := domain.DefaultCurrency
	if r.Currency != nil && strings.TrimSpace(*r.Currency) != "" {
		currency = strings.ToUpper(strings.TrimSpace(*r.Currency))
	}
	available := true
	if r.Available != nil {
		available = *r.Available
	}

	return domain.CompetitorObservation{
		CompetitorID:   id,
		CompetitorName: name,
		RoomTypeCode:   strings.TrimSpace(*r.RoomType),
		Rate:           *r.Amount,
		Currency:       currency,
		Date:           date,
		Available:      available,
		Source:         domain.SourceProvider,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

type fieldError struct {
	field string
	value string
}

func (e fieldError) Error() string {
	if e.value == "" {
		return "missing " + e.field
	}
	return "invalid " + e.field + " " + strconv.Quote(e.value)
}

func errField(f string) error    { return fieldError{field: f} }
func errValue(f, v string) error { return fieldError{field: f, value: v} }
