// Package models defines the typed records shared across the pricefeed
// engine, the payout calculator, and the HTTP API.
package models

import "time"

// Category groups instruments for display purposes.
type Category string

const (
	CategoryMetals Category = "metals"
	CategoryEnergy Category = "energy"
	CategoryForex  Category = "forex"
)

// SourceKind identifies which adapter refreshes an instrument.
type SourceKind string

const (
	// SourceScrape instruments are refreshed by the HTML scrape adapter
	// on slow, staggered cadences.
	SourceScrape SourceKind = "scrape"
	// SourceExchange instruments come from the crypto exchange's batch
	// 24h-ticker endpoint.
	SourceExchange SourceKind = "exchange"
	// SourceQuoteProvider instruments come from the batch quote provider
	// (latest close vs. earliest close in a short lookback window).
	SourceQuoteProvider SourceKind = "quote-provider"
)

// Metal identifies one of the three platinum-group metals priced by the
// scrape adapter.
type Metal string

const (
	MetalPlatinum  Metal = "pt"
	MetalPalladium Metal = "pd"
	MetalRhodium   Metal = "rh"
)

// PGMs lists the scraped metals in bootstrap order.
var PGMs = []Metal{MetalRhodium, MetalPalladium, MetalPlatinum}

// DisplayName returns the human-readable instrument name for a metal.
func (m Metal) DisplayName() string {
	switch m {
	case MetalPlatinum:
		return "Platinum"
	case MetalPalladium:
		return "Palladium"
	case MetalRhodium:
		return "Rhodium"
	}
	return string(m)
}

// Instrument describes one quotable thing. The universe of instruments is
// static: defined at startup, immutable thereafter.
type Instrument struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	Source     SourceKind `json:"source"`
	Multiplier float64    `json:"multiplier,omitempty"` // unit conversion; 0 means none
}

// TickerData is the normalized result one batch adapter returns for one
// symbol: last price plus absolute and percent change.
type TickerData struct {
	Price   float64 `json:"price"`
	Change  float64 `json:"change"`
	Percent float64 `json:"percent"`
}

// Quote is the latest displayed state for one instrument.
type Quote struct {
	Name    string   `json:"name"`
	Price   float64  `json:"price"`
	Change  float64  `json:"change"`
	Percent float64  `json:"percent"`
	Type    Category `json:"type"`
}

// RawRates carries the per-gram PGM prices and the working USD/INR rate
// used by the payout calculator.
type RawRates struct {
	Pt      float64 `json:"pt"`
	Pd      float64 `json:"pd"`
	Rh      float64 `json:"rh"`
	USDRate float64 `json:"usd_rate"`
}

// Insight is a threshold classification for a flagship instrument. Only
// the highest-priority insight observed in a snapshot tick is kept.
type Insight struct {
	Message  string `json:"message"`
	Color    string `json:"color"`
	Priority int    `json:"priority"`
}

// Snapshot is one consolidated view of the market, published atomically
// by the refresh engine. No history is retained.
type Snapshot struct {
	Metals    []Quote   `json:"metals"`
	Energy    []Quote   `json:"energy"`
	Forex     []Quote   `json:"forex"`
	Raw       RawRates  `json:"raw"`
	Insight   *Insight  `json:"insight,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
