package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/infra"
	"github.com/ecotrade/pricefeed/pkg/models"
)

const defaultQuoteBaseURL = "https://query1.finance.yahoo.com"

// QuoteClient fetches short close-price series for many tickers in one
// spark request. Price is the latest close; change is measured against
// the earliest close in the lookback window.
type QuoteClient struct {
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// NewQuoteClient creates a client against the public quote API.
func NewQuoteClient(timeout time.Duration, log *zap.Logger) *QuoteClient {
	return &QuoteClient{baseURL: defaultQuoteBaseURL, timeout: timeout, log: log}
}

// NewQuoteClientWithBaseURL is used by tests to point at a fake server.
func NewQuoteClientWithBaseURL(baseURL string, timeout time.Duration, log *zap.Logger) *QuoteClient {
	return &QuoteClient{baseURL: baseURL, timeout: timeout, log: log}
}

type sparkResponse struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"response"`
		} `json:"result"`
	} `json:"spark"`
}

// Tickers returns price/change/percent per symbol. Symbols with missing
// or empty series are skipped; total failure yields an empty map.
func (c *QuoteClient) Tickers(ctx context.Context, symbols []string) map[string]models.TickerData {
	out := make(map[string]models.TickerData)
	if len(symbols) == 0 {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/v7/finance/spark?symbols=%s&range=2d&interval=1m",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	body, _, err := infra.DoGet(ctx, u, map[string]string{
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	})
	if err != nil {
		c.log.Warn("quote provider batch fetch failed", zap.Error(err))
		return out
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		c.log.Warn("quote provider batch read failed", zap.Error(err))
		return out
	}

	var resp sparkResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.log.Warn("quote provider batch decode failed", zap.Error(err))
		return out
	}

	for _, r := range resp.Spark.Result {
		if len(r.Response) == 0 || len(r.Response[0].Indicators.Quote) == 0 {
			continue
		}
		first, last, ok := seriesEndpoints(r.Response[0].Indicators.Quote[0].Close)
		if !ok || first == 0 {
			continue
		}
		out[r.Symbol] = models.TickerData{
			Price:   last,
			Change:  last - first,
			Percent: (last - first) / first * 100,
		}
	}
	return out
}

// seriesEndpoints returns the first and last non-nil closes of a series.
func seriesEndpoints(closes []*float64) (first, last float64, ok bool) {
	for _, c := range closes {
		if c == nil {
			continue
		}
		if !ok {
			first = *c
			ok = true
		}
		last = *c
	}
	return first, last, ok
}
