package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes, rate-limited where they touch credentials
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/verify-email", r.sensitiveLimit(), r.authHandler.VerifyEmail)
		auth.POST("/resend-otp", r.sensitiveLimit(), r.authHandler.ResendOTP)
		auth.POST("/login", r.sensitiveLimit(), r.authHandler.Login)

		// The refresh token cookie is the credential here, not a JWT
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.POST("/logout", r.authHandler.Logout)

		protected := auth.Group("")
		protected.Use(r.requireAuth())
		{
			protected.POST("/logout-all", r.authHandler.LogoutAll)
			protected.GET("/sessions", r.authHandler.Sessions)
			protected.DELETE("/sessions/:id", r.authHandler.RevokeSession)
		}
	}
}
