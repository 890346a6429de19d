package middleware

import (
	"time"

	"github.com/apibigdata/siret-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger writes one line per handled request: info below 500,
// error otherwise.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		line := "%s %s -> %d (%s) client=%s"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP()}
		if status >= 500 {
			logger.Errorf(line, args...)
			return
		}
		logger.Infof(line, args...)
	}
}
