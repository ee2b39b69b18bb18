package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Buckets idle longer than idleTTL are dropped on the next sweep, so the
// per-client map cannot grow without bound under churning IPs.
const (
	idleTTL       = 10 * time.Minute
	sweepInterval = time.Minute
)

// RateLimiter is an in-memory per-client token bucket. A single instance
// covers one process; put a shared store behind it when running replicas.
type RateLimiter struct {
	capacity int
	perMin   int
	mu       sync.Mutex
	buckets  map[string]*bucket
	sweptAt  time.Time
}

type bucket struct {
	tokens int
	last   time.Time
	seen   time.Time
}

// NewRateLimiter creates a limiter refilling perMinute tokens up to capacity.
func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &RateLimiter{
		capacity: capacity,
		perMin:   perMinute,
		buckets:  make(map[string]*bucket),
		sweptAt:  time.Now(),
	}
}

// Middleware enforces per-IP limits on every request it wraps.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, last: now, seen: now}
		return true
	}
	b.seen = now

	refill := int(now.Sub(b.last).Minutes() * float64(l.perMin))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops idle buckets at most once per sweepInterval. Caller holds mu.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < sweepInterval {
		return
	}
	l.sweptAt = now
	for key, b := range l.buckets {
		if now.Sub(b.seen) > idleTTL {
			delete(l.buckets, key)
		}
	}
}
