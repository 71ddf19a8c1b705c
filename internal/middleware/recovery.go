package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery converts a handler panic into a 500 and logs the stack under the
// request id instead of letting gin kill the connection.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", RequestIDFrom(c)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal error",
				})
			}
		}()
		c.Next()
	}
}
