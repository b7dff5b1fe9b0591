package router

import "github.com/gin-gonic/gin"

func (r *Router) passwordRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		auth.POST("/forgot-password", r.sensitiveLimit(), r.passwordHandler.Forgot)
		auth.GET("/reset-password/:token", r.passwordHandler.VerifyToken)
		auth.POST("/reset-password", r.sensitiveLimit(), r.passwordHandler.Reset)
	}
}
