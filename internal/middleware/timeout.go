package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// OperationTimeout bounds every store call made while serving the request.
// A request that outlives d sees context.DeadlineExceeded from the store.
func OperationTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
