package market

// Policy holds the tunable thresholds used by the analyses.
type Policy struct {
	// PremiumPercentile is the lowest percentile classified as premium.
	PremiumPercentile int `yaml:"premium_percentile" validate:"gte=0,lte=100,gtefield=ValuePercentile"`
	// ValuePercentile is the exclusive upper bound of the value category.
	ValuePercentile int `yaml:"value_percentile" validate:"gte=0,lte=100"`
	// ClusterThreshold is the largest gap between neighbouring rates that
	// keeps them in the same cluster.
	ClusterThreshold float64 `yaml:"cluster_threshold" validate:"gte=0"`
	// DecreaseAbovePct tags a gap "decrease" when the subject rate is more
	// than this many percent above the competitor.
	DecreaseAbovePct float64 `yaml:"gap_decrease_above_pct" validate:"gte=0"`
	// IncreaseBelowPct tags a gap "increase" when the subject rate is more
	// than this many percent below the competitor (negative number).
	IncreaseBelowPct float64 `yaml:"gap_increase_below_pct" validate:"lte=0"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		PremiumPercentile: 75,
		ValuePercentile:   25,
		ClusterThreshold:  20,
		DecreaseAbovePct:  15,
		IncreaseBelowPct:  -15,
	}
}

// Analyzer bundles the analyses behind a single policy.
type Analyzer struct {
	policy Policy
}

// NewAnalyzer creates an analyzer. The policy is used as given, zero
// thresholds included; start from DefaultPolicy to override single fields.
func NewAnalyzer(p Policy) *Analyzer {
	return &Analyzer{policy: p}
}

// Policy returns the thresholds in use.
func (a *Analyzer) Policy() Policy { return a.policy }
