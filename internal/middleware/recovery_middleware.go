// internal/middleware/recovery_middleware.go
package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/utils"
)

// RecoveryMiddleware turns handler panics into a 500 envelope. A panic
// caused by a client that already hung up is logged without a response.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			reqLogger := utils.LoggerWithRequestID(logger, c.GetString("request_id")).With(
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)

			if err, ok := recovered.(error); ok && clientGone(err) {
				reqLogger.Warn("Client connection lost", zap.Error(err))
				_ = c.Error(err)
				c.Abort()
				return
			}

			reqLogger.Error("Panic recovered",
				zap.Any("panic", recovered),
				zap.Stack("stacktrace"),
			)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
			c.Abort()
		}()

		c.Next()
	}
}

// clientGone reports a write to a connection the peer already closed
func clientGone(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}

	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
