package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func doRequest(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", http.NoBody)
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	handler := NewRateLimiter(10, 10).Handler(okHandler())

	for i := range 10 {
		if rec := doRequest(handler, "192.168.1.1"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	fixed := time.Now()
	rl.now = func() time.Time { return fixed }
	handler := rl.Handler(okHandler())

	for range 5 {
		doRequest(handler, "192.168.1.1")
	}

	rec := doRequest(handler, "192.168.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Now()
	rl.now = func() time.Time { return clock }
	handler := rl.Handler(okHandler())

	if rec := doRequest(handler, "10.0.0.9"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.9"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}

	clock = clock.Add(1100 * time.Millisecond)
	if rec := doRequest(handler, "10.0.0.9"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	fixed := time.Now()
	rl.now = func() time.Time { return fixed }
	handler := rl.Handler(okHandler())

	for range 2 {
		doRequest(handler, "10.0.0.1")
	}

	if rec := doRequest(handler, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("IP 10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("IP 10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	clock := time.Now()
	rl.now = func() time.Time { return clock }
	handler := rl.Handler(okHandler())

	doRequest(handler, "10.0.0.1")
	doRequest(handler, "10.0.0.2")
	if rl.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.Len())
	}

	clock = clock.Add(time.Hour)
	doRequest(handler, "10.0.0.3")
	rl.cleanup(10 * time.Minute)

	if rl.Len() != 1 {
		t.Fatalf("expected only the recent client to remain, got %d", rl.Len())
	}
}

func TestRateLimiterStartCleanupStops(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	rl.StartCleanup(ctx, time.Millisecond, time.Nanosecond)
	doRequest(rl.Handler(okHandler()), "10.0.0.1")

	deadline := time.Now().Add(2 * time.Second)
	for rl.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if rl.Len() != 0 {
		t.Fatalf("expected idle client to be cleaned up, got %d", rl.Len())
	}
}

func TestRateLimiterMaxClients(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rl.maxClients = 1
	handler := rl.Handler(okHandler())

	if rec := doRequest(handler, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first client: %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.2"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 at capacity, got %d", rec.Code)
	}
}
