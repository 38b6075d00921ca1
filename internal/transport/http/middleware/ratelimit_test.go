package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	limiter := NewRateLimiter(2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Fatalf("first two requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %v", codes)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter := NewRateLimiter(1)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	if _, ok := limiter.allow("ip:10.0.0.1"); !ok {
		t.Fatal("first request should pass")
	}
	if _, ok := limiter.allow("ip:10.0.0.1"); ok {
		t.Fatal("second request in window should be limited")
	}

	current = current.Add(61 * time.Second)
	if _, ok := limiter.allow("ip:10.0.0.1"); !ok {
		t.Fatal("request after window reset should pass")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1)

	if _, ok := limiter.allow("ip:10.0.0.1"); !ok {
		t.Fatal("first key should pass")
	}
	if _, ok := limiter.allow("ip:10.0.0.2"); !ok {
		t.Fatal("second key should have its own window")
	}
}

// Expired windows must be evicted so the key map does not grow with every
// client the process has ever seen.
func TestRateLimiterSweepsExpiredWindows(t *testing.T) {
	limiter := NewRateLimiter(5)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	for _, key := range []string{"ip:10.0.0.1", "ip:10.0.0.2", "ip:10.0.0.3"} {
		if _, ok := limiter.allow(key); !ok {
			t.Fatalf("seed request for %s should pass", key)
		}
	}
	if len(limiter.windows) != 3 {
		t.Fatalf("expected 3 live windows, got %d", len(limiter.windows))
	}

	current = current.Add(61 * time.Second)
	if _, ok := limiter.allow("ip:10.0.0.9"); !ok {
		t.Fatal("fresh key should pass")
	}
	if len(limiter.windows) != 1 {
		t.Fatalf("expired windows should be evicted, got %d", len(limiter.windows))
	}
	if _, live := limiter.windows["ip:10.0.0.9"]; !live {
		t.Fatal("the fresh key's window should survive the sweep")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("disabled limiter should never block, got %d", rec.Code)
		}
	}
}
