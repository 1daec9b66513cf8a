package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestExchangeTickersBatch(t *testing.T) {
	var gotSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotSymbols = r.URL.Query().Get("symbols")
		fmt.Fprint(w, `[
			{"symbol":"BTCUSDT","lastPrice":"64000.10","priceChange":"-150.2","priceChangePercent":"-0.23"},
			{"symbol":"PAXGUSDT","lastPrice":"2650.00","priceChange":"31.5","priceChangePercent":"1.20"},
			{"symbol":"BADUSDT","lastPrice":"oops","priceChange":"0","priceChangePercent":"0"}
		]`)
	}))
	defer srv.Close()

	c := NewExchangeClientWithBaseURL(srv.URL, 5*time.Second, zap.NewNop())
	out := c.Tickers(context.Background(), []string{"BTCUSDT", "PAXGUSDT", "BADUSDT"})

	// All symbols travel as one JSON array in a single request.
	if gotSymbols != `["BTCUSDT","PAXGUSDT","BADUSDT"]` {
		t.Errorf("symbols param = %q", gotSymbols)
	}
	if len(out) != 2 {
		t.Fatalf("got %d tickers, want 2 (malformed row skipped)", len(out))
	}
	btc := out["BTCUSDT"]
	if btc.Price != 64000.10 || btc.Change != -150.2 || btc.Percent != -0.23 {
		t.Errorf("BTCUSDT = %+v", btc)
	}
}

func TestExchangeTickersFailureYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	c := NewExchangeClientWithBaseURL(srv.URL, 5*time.Second, zap.NewNop())
	if out := c.Tickers(context.Background(), []string{"BTCUSDT"}); len(out) != 0 {
		t.Errorf("got %d tickers from a failing server, want 0", len(out))
	}
}

func TestExchangeTickersNoSymbols(t *testing.T) {
	c := NewExchangeClientWithBaseURL("http://127.0.0.1:0", time.Second, zap.NewNop())
	if out := c.Tickers(context.Background(), nil); len(out) != 0 {
		t.Errorf("got %d tickers for an empty symbol list, want 0", len(out))
	}
}

func TestExchangeSymbolsParamEscaping(t *testing.T) {
	raw := url.QueryEscape(`["BTCUSDT"]`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "symbols="+raw {
			t.Errorf("raw query = %q, want escaped JSON array", r.URL.RawQuery)
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewExchangeClientWithBaseURL(srv.URL, 5*time.Second, zap.NewNop())
	c.Tickers(context.Background(), []string{"BTCUSDT"})
}
