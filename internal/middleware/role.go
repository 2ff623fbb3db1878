package middleware

import (
	"net/http"
	"slices"

	"medleave/internal/domain/access"
	"medleave/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has one of roles.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !slices.Contains(roles, actor.Role) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
			return
		}

		c.Next()
	}
}

// StaffOnly admits reviewers and admins.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(access.RoleReviewer, access.RoleAdmin)
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(access.RoleAdmin)
}
