package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a simple token bucket keyed by client IP
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket // per-IP buckets
	max     int                // tokens per window
	per     time.Duration      // window size
	swept   time.Time          // last stale-bucket sweep
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a new IP-based limiter allowing max requests per window
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per, swept: time.Now()}
}

// Allow consumes one token for the key, starting a fresh window if the
// previous one has elapsed.
func (r *Limiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	// Occasionally drop buckets whose window has long passed so the map
	// does not grow with one entry per client IP ever seen.
	if now.Sub(r.swept) > 10*r.per {
		for k, b := range r.buckets {
			if now.Sub(b.ts) > r.per {
				delete(r.buckets, k)
			}
		}
		r.swept = now
	}

	b := r.buckets[key]
	if b == nil || now.Sub(b.ts) > r.per {
		// Start a new window
		b = &bucket{ts: now, tokens: r.max}
		r.buckets[key] = b
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Middleware enforces the rate limit before calling the next handler
func (r *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, _ := net.SplitHostPort(req.RemoteAddr)
		if !r.Allow(ip) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}
