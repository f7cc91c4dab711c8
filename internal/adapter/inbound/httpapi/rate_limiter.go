package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimitEntry tracks request counts for a single IP address.
type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// rateLimiter provides fixed-window per-IP rate limiting for the
// credential endpoints, slowing down password guessing.
type rateLimiter struct {
	mu          sync.Mutex
	entries     map[string]*rateLimitEntry
	maxRequests int
	window      time.Duration
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		entries:     make(map[string]*rateLimitEntry),
		maxRequests: perMinute,
		window:      time.Minute,
	}
}

// allow checks if the given IP may make another request.
// Returns (allowed, secondsUntilReset).
func (rl *rateLimiter) allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Lazy cleanup: remove expired entries.
	for k, e := range rl.entries {
		if now.After(e.resetAt) {
			delete(rl.entries, k)
		}
	}

	entry, ok := rl.entries[ip]
	if !ok {
		rl.entries[ip] = &rateLimitEntry{
			count:   1,
			resetAt: now.Add(rl.window),
		}
		return true, 0
	}

	if now.After(entry.resetAt) {
		entry.count = 1
		entry.resetAt = now.Add(rl.window)
		return true, 0
	}

	if entry.count >= rl.maxRequests {
		retryAfter := int(entry.resetAt.Sub(now).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	entry.count++
	return true, 0
}

// limitByIP wraps a credential endpoint with per-IP rate limiting.
// A nil limiter (rate limiting disabled) passes everything through.
// Rejected requests get 429 with a Retry-After header.
func (h *Handler) limitByIP(next http.Handler) http.Handler {
	if h.rateLimit == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			clientIP = r.RemoteAddr
		}

		allowed, retryAfter := h.rateLimit.allow(clientIP)
		if !allowed {
			if h.metrics != nil {
				h.metrics.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			h.respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
