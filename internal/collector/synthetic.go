package collector

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/rate-intel/internal/domain"
)

const (
	defaultBaseRate    = 150.0
	variationMagnitude = 0.15
	availability       = 0.9
	weekendMultiplier  = 1.2
)

// DefaultCompetitors is the roster used when none is configured.
var DefaultCompetitors = []domain.Competitor{
	{ID: "comp-harbor-view", Name: "Harbor View Hotel"},
	{ID: "comp-grand-plaza", Name: "Grand Plaza"},
	{ID: "comp-city-lodge", Name: "City Center Lodge"},
	{ID: "comp-seaside-inn", Name: "Seaside Inn"},
}

// DefaultBaseRates maps room type codes to the synthetic base rate.
var DefaultBaseRates = map[string]float64{
	"STD":  120,
	"DLX":  180,
	"STE":  350,
	"PRES": 500,
}

// SyntheticConfig configures the generator. Zero values use the defaults.
type SyntheticConfig struct {
	Seed        uint64
	Competitors []domain.Competitor
	BaseRates   map[string]float64
	DefaultRate float64
}

// SyntheticGenerator produces stand-in competitor rates when the live
// provider is absent or failing. Output depends only on the seed and the
// (property, competitor, room type, date) tuple, so overlapping windows
// agree with each other.
type SyntheticGenerator struct {
	seed        uint64
	competitors []domain.Competitor
	baseRates   map[string]float64
	defaultRate float64
}

// NewSyntheticGenerator builds a generator from cfg.
func NewSyntheticGenerator(cfg SyntheticConfig) *SyntheticGenerator {
	g := &SyntheticGenerator{
		seed:        cfg.Seed,
		competitors: cfg.Competitors,
		baseRates:   cfg.BaseRates,
		defaultRate: cfg.DefaultRate,
	}
	if len(g.competitors) == 0 {
		g.competitors = DefaultCompetitors
	}
	if len(g.baseRates) == 0 {
		g.baseRates = DefaultBaseRates
	}
	if g.defaultRate <= 0 {
		g.defaultRate = defaultBaseRate
	}
	return g
}

// Generate returns one observation per competitor, room type and day in
// [start, end]. With no room types, every code in the base table is used.
func (g *SyntheticGenerator) Generate(propertyID string, start, end time.Time, roomTypeCodes []string) []domain.CompetitorObservation {
	codes := roomTypeCodes
	if len(codes) == 0 {
		codes = make([]string, 0, len(g.baseRates))
		for code := range g.baseRates {
			codes = append(codes, code)
		}
		sort.Strings(codes)
	}

	start, end = domain.TruncateDay(start), domain.TruncateDay(end)
	var out []domain.CompetitorObservation
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, comp := range g.competitors {
			for _, code := range codes {
				out = append(out, g.observe(propertyID, comp, code, day))
			}
		}
	}
	return out
}

func (g *SyntheticGenerator) observe(propertyID string, comp domain.Competitor, code string, day time.Time) domain.CompetitorObservation {
	r := g.stream(propertyID, comp.ID, code, day)

	base, ok := g.baseRates[code]
	if !ok {
		base = g.defaultRate
	}
	variation := (r.Float64()*2 - 1) * variationMagnitude
	raw := base * (1 + variation) * SeasonalMultiplier(day.Month()) * WeekendMultiplier(day.Weekday())

	return domain.CompetitorObservation{
		CompetitorID:   comp.ID,
		CompetitorName: comp.Name,
		RoomTypeCode:   code,
		Rate:           decimal.NewFromFloat(raw).Round(0),
		Currency:       domain.DefaultCurrency,
		Date:           day,
		Available:      r.Float64() < availability,
		Source:         domain.SourceSynthetic,
	}
}

func (g *SyntheticGenerator) stream(parts ...any) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			h.Write([]byte(v))
		case time.Time:
			h.Write([]byte(v.Format(domain.DateLayout)))
		}
		h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

// SeasonalMultiplier returns the demand multiplier for a month. Months are
// counted from zero (January is 0): 5-8 summer, 11 and 0 holidays, 2-4
// shoulder.
func SeasonalMultiplier(m time.Month) float64 {
	switch idx := int(m) - 1; {
	case idx >= 5 && idx <= 8:
		return 1.3
	case idx == 11 || idx == 0:
		return 1.4
	case idx >= 2 && idx <= 4:
		return 1.1
	default:
		return 1.0
	}
}

// WeekendMultiplier returns 1.2 for Saturday and Sunday.
func WeekendMultiplier(d time.Weekday) float64 {
	if d == time.Saturday || d == time.Sunday {
		return weekendMultiplier
	}
	return 1.0
}
