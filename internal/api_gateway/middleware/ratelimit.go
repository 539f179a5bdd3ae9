package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a token bucket per client IP. Buckets live for the
// lifetime of the process.
func RateLimit(logger *slog.Logger, rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := buckets[key]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(rps), burst)
			buckets[key] = lim
		}
		return lim
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !limiterFor(clientIP).Allow() {
			logger.Warn("Rate limit exceeded",
				"client_ip", clientIP,
				"path", c.Request.URL.Path,
				"correlation_id", GetCorrelationID(c),
			)

			response := gin.H{
				"error": gin.H{
					"code":    "TOO_MANY_REQUESTS",
					"message": "Too many requests, slow down",
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, response)
			return
		}
		c.Next()
	}
}
