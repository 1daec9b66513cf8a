// Package payout turns a converter's metal content and the current spot
// prices into a buyer's payout quote. The computation is pure: given the
// same request, pricing configuration, spot prices and USD rate it is
// fully deterministic.
package payout

import (
	"math"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// FallbackUSDRate is used when neither an override nor a live rate is
// available.
const FallbackUSDRate = 86.5

// SpotPrices carries the raw per-ounce PGM prices the calculation
// starts from.
type SpotPrices struct {
	Pt float64
	Pd float64
	Rh float64
}

// Request is one payout computation. Weight is in kilograms, content in
// parts per million per metal. Nil override fields fall back to the
// pricing configuration; Factor falls back to the caller's context
// factor (catalog search, interactive calculator and raw market display
// each carry their own).
type Request struct {
	WeightKg float64 `json:"weight"`
	PtPPM    float64 `json:"pt_ppm"`
	PdPPM    float64 `json:"pd_ppm"`
	RhPPM    float64 `json:"rh_ppm"`
	Currency string  `json:"currency"` // "USD" or "INR"

	MarginPct *float64 `json:"margin_percent,omitempty"`
	DaysOut   *int     `json:"days_out,omitempty"`
	Factor    *float64 `json:"factor,omitempty"`

	// Custom-price mode bypasses the live spot cache entirely; the
	// caller supplies per-ounce prices and optionally a USD rate.
	UseCustomPrice bool    `json:"use_custom_price,omitempty"`
	CustomPt       float64 `json:"custom_pt,omitempty"`
	CustomPd       float64 `json:"custom_pd,omitempty"`
	CustomRh       float64 `json:"custom_rh,omitempty"`
	CustomUSDRate  float64 `json:"custom_usd,omitempty"`
}

// RatesUsed echoes the per-ounce prices the computation actually used.
type RatesUsed struct {
	Pt  float64 `json:"pt"`
	Pd  float64 `json:"pd"`
	Rh  float64 `json:"rh"`
	USD float64 `json:"usd"`
}

// Params echoes the effective parameters for client-side transparency.
type Params struct {
	Margin float64 `json:"margin"`
	Days   int     `json:"days"`
	Factor float64 `json:"factor"`
}

// Result is the final quote: payout and interest deduction in the
// requested currency, rounded to two decimals.
type Result struct {
	FinalPrice float64   `json:"final_price"`
	Interest   float64   `json:"interest"`
	Rates      RatesUsed `json:"rates_used"`
	USDRate    float64   `json:"usd_rate"`
	Params     Params    `json:"params"`
	IsCustom   bool      `json:"is_custom"`
}

// Compute resolves the effective parameters and runs the payout
// pipeline: content → troy ounces → market value → margin → per-metal
// holding-period interest → currency conversion. liveUSDRate is the
// rate currently published by the market engine; contextFactor is the
// configuration factor matching the calling surface. Zero weight or
// content contributes zero without error.
func Compute(req Request, conf models.PricingConfig, spot SpotPrices, liveUSDRate, contextFactor float64) Result {
	margin := conf.DefaultMargin
	if req.MarginPct != nil {
		margin = *req.MarginPct
	}
	days := conf.DefaultDaysOut
	if req.DaysOut != nil {
		days = *req.DaysOut
	}
	factor := contextFactor
	if req.Factor != nil {
		factor = *req.Factor
	}

	usdRate := liveUSDRate
	if req.CustomUSDRate > 0.1 {
		usdRate = req.CustomUSDRate
	}
	if usdRate <= 0 {
		usdRate = FallbackUSDRate
	}

	var pricePt, pricePd, priceRh float64
	if req.UseCustomPrice {
		pricePt, pricePd, priceRh = req.CustomPt, req.CustomPd, req.CustomRh
	} else {
		pricePt = spot.Pt * factor
		pricePd = spot.Pd * factor
		priceRh = spot.Rh * factor
	}

	payoutPt := metalPayout(req.PtPPM, req.WeightKg, pricePt, margin)
	payoutPd := metalPayout(req.PdPPM, req.WeightKg, pricePd, margin)
	payoutRh := metalPayout(req.RhPPM, req.WeightKg, priceRh, margin)

	var intPt, intPd, intRh float64
	if days > 0 {
		intPt = interest(payoutPt, conf.InterestPt, days)
		intPd = interest(payoutPd, conf.InterestPd, days)
		intRh = interest(payoutRh, conf.InterestRh, days)
	}

	totalInterest := intPt + intPd + intRh
	totalPayout := (payoutPt + payoutPd + payoutRh) - totalInterest

	if req.Currency == "INR" {
		totalPayout *= usdRate
		totalInterest *= usdRate
	}

	return Result{
		FinalPrice: round2(totalPayout),
		Interest:   round2(totalInterest),
		Rates:      RatesUsed{Pt: pricePt, Pd: pricePd, Rh: priceRh, USD: usdRate},
		USDRate:    usdRate,
		Params:     Params{Margin: margin, Days: days, Factor: factor},
		IsCustom:   req.UseCustomPrice,
	}
}

// metalPayout converts ppm content at a given weight into a margined
// USD payout for one metal: grams → troy ounces → value → margin.
func metalPayout(ppm, weightKg, pricePerOunce, marginPct float64) float64 {
	grams := (ppm / 1000) * weightKg
	ounces := grams / models.GramsPerTroyOunce
	return ounces * pricePerOunce * (marginPct / 100)
}

// interest is the holding-period deduction: annual rate prorated over
// days out of 365.
func interest(payout, annualRatePct float64, days int) float64 {
	return payout * (annualRatePct / 100) * (float64(days) / 365)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
