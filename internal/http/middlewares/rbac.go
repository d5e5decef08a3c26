package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Unauthenticated.")
			return
		}
		if role != required {
			abort(c, http.StatusForbidden, "forbidden", "Forbidden. Admin role required.")
			return
		}
		c.Next()
	}
}
