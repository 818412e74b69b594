//go:build load

// Package load hammers the auth rate limiter with concurrent traffic. These
// tests are timing sensitive and excluded from regular CI runs.
// Run with: go test -tags load -count=1 -timeout 60s ./tests/load/
package load

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/crm/internal/middleware"
)

// tally counts outcomes of a batch of requests.
type tally struct {
	ok, limited, noRetryAfter atomic.Int64
}

func (c *tally) rejectedShare() float64 {
	total := c.ok.Load() + c.limited.Load()
	if total == 0 {
		return 0
	}
	return float64(c.limited.Load()) / float64(total)
}

// loginEndpoint is what the limiter guards in production: it always admits.
func loginEndpoint(rl *middleware.RateLimiter) http.Handler {
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// flood sends workers x perWorker login attempts from ip concurrently.
func flood(h http.Handler, ip string, workers, perWorker int) *tally {
	var c tally
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				req := httptest.NewRequest(http.MethodPost, "/api/auth/login", http.NoBody)
				req.RemoteAddr = ip + ":40000"
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				switch rec.Code {
				case http.StatusOK:
					c.ok.Add(1)
				case http.StatusTooManyRequests:
					c.limited.Add(1)
					if rec.Header().Get("Retry-After") == "" {
						c.noRetryAfter.Add(1)
					}
				}
			}
		}()
	}
	wg.Wait()
	return &c
}

func TestCredentialStuffingIsThrottled(t *testing.T) {
	h := loginEndpoint(middleware.NewRateLimiter(10, 10))

	c := flood(h, "203.0.113.7", 10, 100)
	t.Logf("ok=%d limited=%d (%.1f%% rejected)", c.ok.Load(), c.limited.Load(), 100*c.rejectedShare())

	if c.rejectedShare() < 0.8 {
		t.Errorf("expected >80%% of 1000 instant attempts rejected, got %.1f%%", 100*c.rejectedShare())
	}
	if n := c.noRetryAfter.Load(); n != 0 {
		t.Errorf("%d rejections lacked Retry-After", n)
	}
}

func TestBurstIsAbsorbedThenCut(t *testing.T) {
	const burst = 50
	h := loginEndpoint(middleware.NewRateLimiter(1, burst))

	c := flood(h, "198.51.100.1", burst, 1)
	if c.ok.Load() != burst {
		t.Fatalf("expected all %d burst attempts admitted, got ok=%d limited=%d", burst, c.ok.Load(), c.limited.Load())
	}

	next := flood(h, "198.51.100.1", 1, 1)
	if next.limited.Load() != 1 {
		t.Fatal("attempt beyond the burst should be rejected")
	}
}

func TestAbusiveClientDoesNotStarveOthers(t *testing.T) {
	rl := middleware.NewRateLimiter(5, 5)
	h := loginEndpoint(rl)

	var wg sync.WaitGroup
	var abuser, honest *tally
	wg.Add(2)
	go func() { defer wg.Done(); abuser = flood(h, "192.0.2.66", 8, 50) }()
	go func() { defer wg.Done(); honest = flood(h, "192.0.2.10", 1, 5) }()
	wg.Wait()

	if abuser.limited.Load() == 0 {
		t.Error("abusive client was never limited")
	}
	if honest.ok.Load() != 5 {
		t.Errorf("honest client admitted %d/5 attempts while another IP flooded", honest.ok.Load())
	}
}

func TestManyClientsEachGetOneBucket(t *testing.T) {
	const clients = 200
	rl := middleware.NewRateLimiter(100, 100)
	h := loginEndpoint(rl)

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flood(h, fmt.Sprintf("10.1.%d.%d", i/256, i%256), 2, 5)
		}()
	}
	wg.Wait()

	if rl.Len() != clients {
		t.Fatalf("tracked %d clients, want %d", rl.Len(), clients)
	}
}

func TestIdleBucketsAreReclaimed(t *testing.T) {
	const clients = 1000
	rl := middleware.NewRateLimiter(10, 10)
	h := loginEndpoint(rl)

	for i := range clients {
		flood(h, fmt.Sprintf("10.%d.%d.%d", i/65536, (i/256)%256, i%256), 1, 1)
	}
	if rl.Len() != clients {
		t.Fatalf("tracked %d clients, want %d", rl.Len(), clients)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.Sleep(10 * time.Millisecond)
	rl.StartCleanup(ctx, 5*time.Millisecond, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for rl.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := rl.Len(); n != 0 {
		t.Errorf("%d idle buckets left after cleanup", n)
	}
}
