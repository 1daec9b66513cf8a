package models

// GramsPerTroyOunce converts mass in grams to troy ounces, the unit all
// PGM spot prices are quoted in.
const GramsPerTroyOunce = 31.1035

// PricingConfig is the singleton admin-tunable record behind every payout
// computation. Exactly one row exists; it is created lazily with these
// defaults on first open.
type PricingConfig struct {
	DefaultMargin  float64 `json:"default_margin"`
	DefaultDaysOut int     `json:"default_days_out"`

	// Annual interest rates, percent per metal.
	InterestPt float64 `json:"interest_pt"`
	InterestPd float64 `json:"interest_pd"`
	InterestRh float64 `json:"interest_rh"`

	// Per-surface spot-price adjustment factors (1.0 = 100%).
	FactorCalculator float64 `json:"factor_calculator"`
	FactorConverter  float64 `json:"factor_converter"`
	FactorMarket     float64 `json:"factor_market"`
}

// DefaultPricingConfig returns the values seeded into a fresh database.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultMargin:    82.0,
		DefaultDaysOut:   120,
		InterestPt:       18.25,
		InterestPd:       9.125,
		InterestRh:       9.14,
		FactorCalculator: 1.0,
		FactorConverter:  1.0,
		FactorMarket:     1.0,
	}
}

// Converter is one catalytic-converter catalog entry. The catalog is
// maintained by admin CRUD and read by the payout calculator.
type Converter struct {
	Serial      string  `json:"serial"`
	Brand       string  `json:"brand"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	WeightKg    float64 `json:"weight_kg"`
	PtPPM       float64 `json:"pt_ppm"`
	PdPPM       float64 `json:"pd_ppm"`
	RhPPM       float64 `json:"rh_ppm"`
}
