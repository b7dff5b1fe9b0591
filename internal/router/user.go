package router

import (
	"github.com/gin-gonic/gin"

	"github.com/edwardnovrizal/api-panel/internal/middleware"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	users.Use(r.requireAuth())
	{
		users.GET("/me", r.userHandler.Profile)
		users.PUT("/me", r.userHandler.UpdateProfile)
		users.PUT("/me/password", r.passwordHandler.Change)

		admin := users.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("", r.userHandler.List)
			admin.PUT("/:id/active", r.userHandler.ToggleActive)
		}
	}
}
