package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"peopledesk/internal/transport/http/api"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window in-memory limiter keyed by the
// authenticated user when present, otherwise by remote IP. State lives in
// the process; a multi-instance deployment needs a shared store instead.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	perMinute int
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		windows:   make(map[string]*rateWindow),
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (l *RateLimiter) allow(key string) (remaining int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	window, exists := l.windows[key]
	if !exists || now.Sub(window.start) >= time.Minute {
		window = &rateWindow{start: now}
		l.windows[key] = window
	}
	if window.count >= l.perMinute {
		return 0, false
	}
	window.count++
	return l.perMinute - window.count, true
}

// sweep drops expired windows at most once a minute so the key map stays
// bounded by the set of currently active callers. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	for key, window := range l.windows {
		if now.Sub(window.start) >= time.Minute {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

func (l *RateLimiter) key(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.perMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		remaining, ok := l.allow(l.key(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			w.Header().Set("Retry-After", "60")
			api.Fail(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
