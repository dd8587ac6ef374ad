package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/response"
)

// RateLimiter is a per-IP token bucket. Generation calls fan out to the
// model backend, so the bucket is kept small and refills slowly.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	interval time.Duration // Time to refill one full bucket
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter allows capacity requests per interval for each client IP.
func NewRateLimiter(capacity int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		interval: interval,
	}

	go func() {
		for range time.Tick(time.Minute) {
			rl.evictIdle()
		}
	}()

	return rl
}

// Middleware rejects requests with RATE_LIMIT_EXCEEDED once a client's
// bucket is drained.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: float64(rl.capacity), lastRefill: now}
		rl.buckets[ip] = b
	}

	// Continuous refill proportional to elapsed time.
	elapsed := now.Sub(b.lastRefill)
	b.tokens += elapsed.Seconds() / rl.interval.Seconds() * float64(rl.capacity)
	if b.tokens > float64(rl.capacity) {
		b.tokens = float64(rl.capacity)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if time.Since(b.lastRefill) > 3*rl.interval {
			delete(rl.buckets, ip)
		}
	}
}
