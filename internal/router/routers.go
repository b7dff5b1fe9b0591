package router

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/internal/handler"
	"github.com/edwardnovrizal/api-panel/internal/middleware"
	"github.com/edwardnovrizal/api-panel/internal/service"
	"github.com/edwardnovrizal/api-panel/pkg/redis"
)

type Router struct {
	authHandler     *handler.AuthHandler
	userHandler     *handler.UserHandler
	passwordHandler *handler.PasswordHandler
	healthHandler   *handler.HealthHandler

	jwtService *service.JWTService
	userStore  service.UserStore
	redis      redis.Client
	cfg        *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	password *handler.PasswordHandler,
	health *handler.HealthHandler,
	jwtService *service.JWTService,
	userStore service.UserStore,
	redisClient redis.Client,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:     auth,
		userHandler:     user,
		passwordHandler: password,
		healthHandler:   health,
		jwtService:      jwtService,
		userStore:       userStore,
		redis:           redisClient,
		cfg:             cfg,
	}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// registerValidators adds custom binding rules to gin's validator
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("alphanumunder", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.cfg.App.Environment == constants.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidators()

	router := gin.New()

	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ContextMiddleware(r.cfg.App.Timeout))
	router.Use(middleware.CORS())

	router.GET("/health", r.healthHandler.Check)

	v1 := router.Group("/v1/api")
	{
		r.authRoutes(v1)
		r.passwordRoutes(v1)
		r.userRoutes(v1)
	}

	return router
}

// sensitiveLimit rate-limits endpoints that guess at credentials
func (r *Router) sensitiveLimit() gin.HandlerFunc {
	if !r.cfg.RateLimit.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(r.redis, r.cfg.RateLimit.Request, r.cfg.RateLimit.Duration)
}

// requireAuth builds the shared bearer-token guard
func (r *Router) requireAuth() gin.HandlerFunc {
	return middleware.RequireAuth(r.jwtService, r.userStore)
}
