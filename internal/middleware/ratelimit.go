package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ai-image-decoder/internal/metrics"
)

// Visitor bookkeeping.
const (
	VisitorTTL      = 5 * time.Minute
	CleanupInterval = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a token bucket per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows each client rps requests per second with bursts of
// burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (rl *RateLimiter) enabled() bool {
	return rl != nil && rl.limit > 0
}

func (rl *RateLimiter) visitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.enabled() {
		return true
	}
	return rl.visitor(ip).AllowN(rl.now(), 1)
}

// Cleanup forgets clients idle for longer than VisitorTTL.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := rl.now().Add(-VisitorTTL)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every CleanupInterval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	if !rl.enabled() {
		return
	}
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				log.Debug("Rate limiter dropped %d idle clients", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects over-limit requests with 429 and a JSON error.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(ClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}

		metrics.HTTPRateLimitedTotal.WithLabelValues(routeLabel(r)).Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"error": "too many requests, please wait a moment",
		}); err != nil {
			log.Error("failed to encode JSON response: %v", err)
		}
	})
}
