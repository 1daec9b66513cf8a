// Package source implements the upstream price adapters: the HTML spot
// scraper, the exchange batch ticker client, the batch quote provider,
// and the market news feed. Every adapter is best-effort: total failure
// of any one of them yields "no data", never an error that could stop
// the refresh engine.
package source

import "github.com/ecotrade/pricefeed/pkg/models"

// USDINRName is the designated FX instrument whose price becomes the
// working USD rate used by the payout calculator.
const USDINRName = "USD / INR"

// FlagshipInstruments are the instruments eligible for an insight
// annotation in each snapshot.
var FlagshipInstruments = map[string]bool{
	"Gold (Spot)": true,
	"Bitcoin":     true,
}

// Universe is the static instrument table. The three PGMs are handled by
// the scrape adapter and not listed here; everything else refreshes on
// the fast batch cadence. Multiplier 0 means no unit conversion.
var Universe = []models.Instrument{
	{Symbol: "PAXGUSDT", Name: "Gold (Spot)", Category: models.CategoryMetals, Source: models.SourceExchange, Multiplier: 1.0},
	{Symbol: "SI=F", Name: "Silver (Spot)", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 1.0},
	{Symbol: "HG=F", Name: "Copper", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 2.2046},
	{Symbol: "ALI=F", Name: "Aluminum", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.001},
	{Symbol: "ZINC.L", Name: "Zinc", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.28},
	{Symbol: "VALE", Name: "Nickel", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 1.23},
	{Symbol: "SCCO", Name: "Lead", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.0142},
	{Symbol: "TIN.L", Name: "Tin", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.32},
	{Symbol: "RIO", Name: "Iron Ore", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.0012},
	{Symbol: "HRC=F", Name: "Steel (HRC)", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "SLX", Name: "Steel (Scrap)", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "LIT", Name: "Lithium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 0.25},
	{Symbol: "GLNCY", Name: "Cobalt", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 2.65},
	{Symbol: "CCJ", Name: "Manganese", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "LGO", Name: "Vanadium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "NMG", Name: "Graphite", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "URA", Name: "Uranium (Metal)", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 2.7},
	{Symbol: "ATI", Name: "Titanium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "REMX", Name: "Rare Earths", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "ACH", Name: "Magnesium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider, Multiplier: 15.0},
	{Symbol: "SMH", Name: "Indium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "TECK", Name: "Gallium", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},
	{Symbol: "FCX", Name: "Molybdenum", Category: models.CategoryMetals, Source: models.SourceQuoteProvider},

	{Symbol: "CL=F", Name: "Crude Oil (WTI)", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "BZ=F", Name: "Brent Crude", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "NG=F", Name: "Natural Gas", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "HO=F", Name: "Heating Oil", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "RB=F", Name: "Gasoline (RBOB)", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "BTU", Name: "Coal (Newcastle)", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider, Multiplier: 4.5},
	{Symbol: "ADM", Name: "Ethanol", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider, Multiplier: 0.026},
	{Symbol: "TAN", Name: "Solar Energy", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "ICLN", Name: "Clean Energy", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},
	{Symbol: "KRBN", Name: "Carbon Credits", Category: models.CategoryEnergy, Source: models.SourceQuoteProvider},

	{Symbol: "BTCUSDT", Name: "Bitcoin", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "ETHUSDT", Name: "Ethereum", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "SOLUSDT", Name: "Solana", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "XRPUSDT", Name: "XRP", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "DOGEUSDT", Name: "Dogecoin", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "ADAUSDT", Name: "Cardano", Category: models.CategoryForex, Source: models.SourceExchange},
	{Symbol: "INR=X", Name: USDINRName, Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "EURINR=X", Name: "EUR / INR", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "GBPINR=X", Name: "GBP / INR", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "CNY=X", Name: "USD / CNY", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "EUR=X", Name: "EUR / USD", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "GBP=X", Name: "GBP / USD", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "JPY=X", Name: "USD / JPY", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "CHF=X", Name: "USD / CHF", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "AUD=X", Name: "AUD / USD", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "CAD=X", Name: "USD / CAD", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
	{Symbol: "DX-Y.NYB", Name: "Dollar Index", Category: models.CategoryForex, Source: models.SourceQuoteProvider},
}
