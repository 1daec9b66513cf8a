package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.URL, map[string]string{"User-Agent": "test-agent"})
	if err != nil {
		t.Fatalf("DoGet: %v", err)
	}
	defer body.Close()
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
}

func TestDoGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, status, err := DoGet(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("DoGet succeeded on a 403")
	}
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("err = %v, want *ErrHTTP with 403", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(25 * time.Millisecond)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get returned a missing key")
	}

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v.(int) != 42 {
		t.Errorf("Get = %v/%v, want 42/true", v, ok)
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get returned an expired entry")
	}
}

func TestCacheCustomTTL(t *testing.T) {
	c := NewCache(time.Millisecond)
	c.SetWithTTL("k", "v", time.Minute)

	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Error("custom TTL entry expired with the default TTL")
	}
}

func TestRateLimiterBlocksAndRefills(t *testing.T) {
	rl := NewRateLimiter(2, 150*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("initial tokens should be immediate")
	}

	// Third call has to wait for the next window.
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("third token handed out before the window refilled")
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(cancelled); err == nil {
		t.Error("Wait returned without a token on a cancelled context")
	}
}
