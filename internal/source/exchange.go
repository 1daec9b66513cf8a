package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/infra"
	"github.com/ecotrade/pricefeed/pkg/models"
)

const defaultExchangeBaseURL = "https://api.binance.com"

// ExchangeClient fetches 24h tickers for many symbols in one batch call.
type ExchangeClient struct {
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// NewExchangeClient creates a client against the public exchange API.
func NewExchangeClient(timeout time.Duration, log *zap.Logger) *ExchangeClient {
	return &ExchangeClient{baseURL: defaultExchangeBaseURL, timeout: timeout, log: log}
}

// NewExchangeClientWithBaseURL is used by tests to point at a fake server.
func NewExchangeClientWithBaseURL(baseURL string, timeout time.Duration, log *zap.Logger) *ExchangeClient {
	return &ExchangeClient{baseURL: baseURL, timeout: timeout, log: log}
}

type exchangeTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Tickers returns price/change/percent per symbol. Any failure (network,
// status, malformed body) yields an empty map, never an error: stale
// values upstream stay in effect until the next successful batch.
func (c *ExchangeClient) Tickers(ctx context.Context, symbols []string) map[string]models.TickerData {
	out := make(map[string]models.TickerData)
	if len(symbols) == 0 {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The endpoint takes a JSON array of symbols as one query parameter.
	quoted := make([]string, len(symbols))
	for i, s := range symbols {
		quoted[i] = `"` + s + `"`
	}
	u := fmt.Sprintf("%s/api/v3/ticker/24hr?symbols=%s",
		c.baseURL, url.QueryEscape("["+strings.Join(quoted, ",")+"]"))

	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		c.log.Warn("exchange batch fetch failed", zap.Error(err))
		return out
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		c.log.Warn("exchange batch read failed", zap.Error(err))
		return out
	}

	var tickers []exchangeTicker
	if err := json.Unmarshal(data, &tickers); err != nil {
		c.log.Warn("exchange batch decode failed", zap.Error(err))
		return out
	}

	for _, t := range tickers {
		price, err1 := strconv.ParseFloat(t.LastPrice, 64)
		change, err2 := strconv.ParseFloat(t.PriceChange, 64)
		percent, err3 := strconv.ParseFloat(t.PriceChangePercent, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out[t.Symbol] = models.TickerData{Price: price, Change: change, Percent: percent}
	}
	return out
}
