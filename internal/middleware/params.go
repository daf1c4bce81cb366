package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
)

// RequireIDParam parses a numeric path parameter and stores it under the
// same name. Malformed IDs get 400 with "Invalid <label> ID".
func RequireIDParam(name, label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+label+" ID")
			return
		}
		c.Set(name, id)
		c.Next()
	}
}

// GetIDParam returns the ID stored by RequireIDParam
func GetIDParam(c *gin.Context, name string) uint64 {
	id, _ := c.Get(name)
	v, _ := id.(uint64)
	return v
}
