package middleware

import (
	"net/http"
	"sync"

	"github.com/apibigdata/siret-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientKey identifies the caller for rate limiting. The API is
// unauthenticated, so the client IP is the only signal.
func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a per-client token bucket.
// rps = allowed events per second, burst = maximum tokens in bucket.
// Each middleware instance keeps its own limiter set.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var limiters sync.Map // map[string]*rate.Limiter
	return func(c *gin.Context) {
		v, _ := limiters.LoadOrStore(clientKey(c), rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Trop de requêtes"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
