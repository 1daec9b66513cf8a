package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Metals Wire</title>
<item><title>Platinum rallies</title><link>https://example.com/a</link>
<pubDate>Mon, 02 Mar 2026 08:00:00 GMT</pubDate></item>
<item><title>Rhodium slides</title><link>https://example.com/b</link>
<pubDate>Tue, 03 Mar 2026 08:00:00 GMT</pubDate></item>
</channel></rss>`

func TestHeadlinesSortedNewestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	n := NewNews([]string{srv.URL}, time.Minute, zap.NewNop())
	got := n.Headlines(context.Background(), 10)

	if len(got) != 2 {
		t.Fatalf("got %d headlines, want 2", len(got))
	}
	if got[0].Title != "Rhodium slides" {
		t.Errorf("first headline = %q, want the newest item", got[0].Title)
	}
	if got[0].Source != "Metals Wire" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestHeadlinesCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	n := NewNews([]string{srv.URL}, time.Minute, zap.NewNop())
	n.Headlines(context.Background(), 10)
	n.Headlines(context.Background(), 10)

	if hits.Load() != 1 {
		t.Errorf("feed fetched %d times inside the cache TTL, want 1", hits.Load())
	}
}

func TestHeadlinesFeedFailureSkipped(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeed)
	}))
	defer good.Close()

	n := NewNews([]string{bad.URL, good.URL}, time.Minute, zap.NewNop())
	got := n.Headlines(context.Background(), 10)

	if len(got) != 2 {
		t.Errorf("got %d headlines with one dead feed, want 2", len(got))
	}
}

func TestHeadlinesEmptyResultNotCached(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	n := NewNews([]string{srv.URL}, time.Hour, zap.NewNop())
	if got := n.Headlines(context.Background(), 10); len(got) != 0 {
		t.Fatalf("got %d headlines from a dead feed, want 0", len(got))
	}

	// The upstream recovers well inside the TTL; headlines must return
	// on the very next call instead of a cached empty set.
	healthy.Store(true)
	if got := n.Headlines(context.Background(), 10); len(got) != 2 {
		t.Errorf("got %d headlines after recovery, want 2", len(got))
	}
}

func TestHeadlinesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	n := NewNews([]string{srv.URL}, time.Minute, zap.NewNop())
	if got := n.Headlines(context.Background(), 1); len(got) != 1 {
		t.Errorf("got %d headlines, want limit 1", len(got))
	}
}
