package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/respond"
	"letterhead-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope carrying the request id
// so the client can quote it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(c)
			telemetry.Error("panic", map[string]any{
				"request_id": reqID,
				"user_id":    UserIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Terjadi kesalahan tak terduga", gin.H{"requestId": reqID})
		}()
		c.Next()
	}
}
