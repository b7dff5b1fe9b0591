package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/model"
)

// RequireRole allows only the listed roles past. Must run after
// RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(GinKeyRole)
		if _, ok := allowed[role]; !ok {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireAdmin allows admin and super_admin
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin, model.RoleSuperAdmin)
}
