package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const staleAfter = 10 * time.Minute

// Limiter applies a per-client token bucket to the API routes. Paths listed
// at construction (health and metrics probes) are served without consuming
// tokens. State is per process; a multi-instance deployment would move this
// to redis.
type Limiter struct {
	capacity int
	perMin   int
	skip     map[string]struct{}

	mu      sync.Mutex
	clients map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewLimiter allows perMinute requests per client IP with a burst of the
// same size. skipPaths are exempt from limiting.
func NewLimiter(perMinute int, skipPaths ...string) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return &Limiter{
		capacity: perMinute,
		perMin:   perMinute,
		skip:     skip,
		clients:  make(map[string]*bucket),
		sweep:    time.Now(),
	}
}

// Gin returns the middleware enforcing the limit.
func (l *Limiter) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := l.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func (l *Limiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop buckets for clients idle past staleAfter so the map stays bounded.
	if now.Sub(l.sweep) > staleAfter {
		for k, b := range l.clients {
			if now.Sub(b.last) > staleAfter {
				delete(l.clients, k)
			}
		}
		l.sweep = now
	}

	b, ok := l.clients[key]
	if !ok {
		l.clients[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
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
