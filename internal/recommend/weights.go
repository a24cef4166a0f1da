package recommend

// Weights configures the recommendation blend and confidence scoring.
type Weights struct {
	CurrentWeight float64 `yaml:"current_weight"`
	MarketWeight  float64 `yaml:"market_weight"`

	// DirectionStep is applied up or down when most competitors agree.
	DirectionStep float64 `yaml:"direction_step"`
	// DemandStep is applied up for high demand and down for low demand.
	DemandStep float64 `yaml:"demand_step"`
	// CategoryStep is applied down for a premium position and up for a
	// value position.
	CategoryStep float64 `yaml:"category_step"`
	// TrendFactor scales the occupancy trend; TrendCap bounds the result.
	TrendFactor float64 `yaml:"trend_factor"`
	TrendCap    float64 `yaml:"trend_cap"`

	HighDemandOccupancy float64 `yaml:"high_demand_occupancy"`
	LowDemandOccupancy  float64 `yaml:"low_demand_occupancy"`
	StableTrendBand     float64 `yaml:"stable_trend_band"`

	BaseConfidence       float64 `yaml:"base_confidence"`
	PerCompetitorBonus   float64 `yaml:"per_competitor_bonus"`
	MaxCompetitorsScored int     `yaml:"max_competitors_scored"`
	AgreementBonus       float64 `yaml:"agreement_bonus"`
	HistoryBonus         float64 `yaml:"history_bonus"`
	MinHistorySamples    int     `yaml:"min_history_samples"`
	DispersionPenalty    float64 `yaml:"dispersion_penalty"`

	// CategoryConflictPenalty is taken off confidence when the position
	// category and the majority gap direction disagree.
	CategoryConflictPenalty float64 `yaml:"category_conflict_penalty"`

	// HighVarianceCV is the coefficient of variation above which the market
	// is considered too scattered; confidence is then capped at
	// HighVarianceCap.
	HighVarianceCV  float64 `yaml:"high_variance_cv"`
	HighVarianceCap float64 `yaml:"high_variance_cap"`
}

// DefaultWeights returns the production blend.
func DefaultWeights() Weights {
	return Weights{
		CurrentWeight:           0.6,
		MarketWeight:            0.4,
		DirectionStep:           0.03,
		DemandStep:              0.05,
		CategoryStep:            0.02,
		TrendFactor:             0.5,
		TrendCap:                0.05,
		HighDemandOccupancy:     0.80,
		LowDemandOccupancy:      0.50,
		StableTrendBand:         0.02,
		BaseConfidence:          40,
		PerCompetitorBonus:      3,
		MaxCompetitorsScored:    10,
		AgreementBonus:          20,
		HistoryBonus:            10,
		MinHistorySamples:       7,
		DispersionPenalty:       50,
		CategoryConflictPenalty: 10,
		HighVarianceCV:          0.25,
		HighVarianceCap:         60,
	}
}

// withDefaults replaces an all-zero blend with DefaultWeights.
func (w Weights) withDefaults() Weights {
	if w.CurrentWeight == 0 && w.MarketWeight == 0 {
		return DefaultWeights()
	}
	return w
}
