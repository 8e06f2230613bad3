package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthinsure/internal/domain"
	"healthinsure/internal/pkg/response"
)

// RequireRole lets the request through only when the token role is one of roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		r, _ := role.(string)
		for _, allowed := range roles {
			if domain.UserRole(r) == allowed {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
