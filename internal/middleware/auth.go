package middleware

import (
	"net/http"
	"strings"

	"medleave/internal/domain/access"
	"medleave/internal/pkg/jwt"
	"medleave/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth verifies the bearer token and stores the caller's id and
// normalized role on the context. Tokens whose role maps to nothing in the
// closed role set are refused here, so handlers only ever see valid roles.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		role, ok := access.NormalizeRole(claims.Role)
		if !ok {
			response.Abort(c, http.StatusForbidden, "ROLE_NOT_PERMITTED", "Access denied")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// ActorFrom returns the caller identity JWTAuth stored on the context.
func ActorFrom(c *gin.Context) (access.Actor, bool) {
	id := c.GetInt64(ctxUserID)
	v, exists := c.Get(ctxRole)
	role, ok := v.(access.Role)
	if id == 0 || !exists || !ok {
		return access.Actor{}, false
	}
	return access.Actor{ID: id, Role: role}, true
}
