// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/utils"
)

// LoggingMiddleware logs every API request with its status, latency and
// request id. Print bodies are never logged.
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		extra := []zap.Field{zap.Int("response_bytes", c.Writer.Size())}
		if c.Request.ContentLength > 0 {
			extra = append(extra, zap.Int64("request_bytes", c.Request.ContentLength))
		}
		if len(c.Errors) > 0 {
			extra = append(extra, zap.String("errors", c.Errors.String()))
		}

		logger.WithRequestID(c.GetString("request_id")).LogAPIRequest(
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
			extra...,
		)
	}
}
