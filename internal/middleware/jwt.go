package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	apperrors "github.com/edwardnovrizal/api-panel/internal/errors"
	"github.com/edwardnovrizal/api-panel/internal/service"
	ctxutil "github.com/edwardnovrizal/api-panel/pkg/context"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// Gin context keys set by RequireAuth
const (
	GinKeyUserID   = "user_id"
	GinKeyUsername = "username"
	GinKeyRole     = "role"
)

// RequireAuth validates the bearer token and loads the current user.
// The user record is re-read on every request so deactivation takes
// effect immediately, regardless of access token lifetime.
func RequireAuth(jwt *service.JWTService, users service.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if header == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := jwt.Verify(parts[1])
		if err != nil {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, apperrors.ErrUnauthorized)
				return
			}
			abortWithError(c, apperrors.ErrInternal)
			return
		}

		if !user.IsActive {
			logger.WarnWithContext(c.Request.Context(), "Inactive user rejected").
				Uint("user_id", user.ID).
				Log()
			abortWithError(c, apperrors.ErrAccountInactive)
			return
		}

		c.Set(GinKeyUserID, user.ID)
		c.Set(GinKeyUsername, user.Username)
		c.Set(GinKeyRole, user.Role)

		c.Request = c.Request.WithContext(
			ctxutil.WithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID from the gin context
func CurrentUserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(GinKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

func abortWithError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	c.AbortWithStatusJSON(status,
		constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}
