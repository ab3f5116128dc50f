package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"cardmarket/pkg/log"
)

// RateLimitConfig rate limiting middleware configuration
type RateLimitConfig struct {
	// Rate requests per second
	Rate float64
	// Burst maximum burst size
	Burst int
	// KeyFunc function to generate the rate limit key
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig per-client-IP rate limiting
func DefaultRateLimitConfig(rps float64, burst int) RateLimitConfig {
	return RateLimitConfig{
		Rate:  rps,
		Burst: burst,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimit rate limiting middleware keyed by client IP
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	return RateLimitWithConfig(DefaultRateLimitConfig(rps, burst))
}

// RateLimitWithConfig rate limiting middleware with configuration
func RateLimitWithConfig(config RateLimitConfig) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		mu.Lock()
		limiter, exists := limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(config.Rate), config.Burst)
			limiters[key] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			log.WithFields(map[string]interface{}{
				"key":    key,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
