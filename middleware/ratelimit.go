package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientRateLimiter manages per-client request quotas. The quota is a
// fixed number of requests per window, modelled as a token bucket whose
// burst equals the quota and whose refill rate spreads the quota over
// the window.
type ClientRateLimiter struct {
	clients map[string]*rate.Limiter
	mu      *sync.RWMutex
	limit   rate.Limit
	burst   int
}

// NewClientRateLimiter creates a limiter admitting maxRequests per
// window for each distinct client key.
func NewClientRateLimiter(maxRequests int, window time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*rate.Limiter),
		mu:      &sync.RWMutex{},
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
	}
}

// Quota returns the per-window request quota.
func (c *ClientRateLimiter) Quota() int {
	return c.burst
}

// AddClient registers a fresh limiter for key.
func (c *ClientRateLimiter) AddClient(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter := rate.NewLimiter(c.limit, c.burst)
	c.clients[key] = limiter

	return limiter
}

// GetLimiter returns the limiter for key, creating it on first use.
func (c *ClientRateLimiter) GetLimiter(key string) *rate.Limiter {
	c.mu.Lock()
	limiter, exists := c.clients[key]

	if !exists {
		c.mu.Unlock()
		return c.AddClient(key)
	}

	c.mu.Unlock()

	return limiter
}

// RetryAfter reports how many whole seconds until the limiter would
// admit one request. Always at least 1 so callers get a usable hint.
func RetryAfter(limiter *rate.Limiter) int {
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	seconds := int(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// ClientKey derives the rate-limit bucket key for a request: the
// left-most forwarded-for address when present, otherwise the socket
// address without its port.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.Split(forwarded, ",")[0]
		if key := strings.TrimSpace(first); key != "" {
			return key
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
