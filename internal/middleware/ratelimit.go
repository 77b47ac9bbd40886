package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter applies a token-bucket limit per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing perSec requests per second
// with the given burst per client.
func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSec),
		burst:   burst,
	}
}

func (r *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.clients[clientIP]
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.clients[clientIP] = limiter
	}
	return limiter
}

// Handler returns the gin middleware enforcing the limit.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "rate limit exceeded",
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}
		c.Next()
	}
}
