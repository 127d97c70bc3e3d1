package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/marea-events/backend/pkg/response"
)

// Privileged groups recognized by the service.
const (
	GroupAdmin = "admin"
	GroupStaff = "staff"
)

// RequireGroup returns a middleware that allows only callers belonging to at
// least one of the given groups. Must run after Identity.
func RequireGroup(groups ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, g := range groups {
		allowed[g] = struct{}{}
	}
	return func(c *gin.Context) {
		v, ok := c.Get(ContextGroups)
		if !ok {
			response.Unauthorized(c, "missing caller context")
			c.Abort()
			return
		}
		memberships, _ := v.([]string)
		for _, g := range memberships {
			if _, ok := allowed[g]; ok {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
