package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	configs "github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/handler"
	"github.com/edwardnovrizal/api-panel/internal/repository"
	"github.com/edwardnovrizal/api-panel/internal/router"
	"github.com/edwardnovrizal/api-panel/internal/service"
	"github.com/edwardnovrizal/api-panel/pkg/database"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
	"github.com/edwardnovrizal/api-panel/pkg/redis"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	// Database
	db, err := database.NewPostgresDB(config.Database)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db); err != nil {
		// Seed data may already exist
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	}

	// Redis
	redisClient := redis.NewClient(config, logger.GetLogger())
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	resetRepo := repository.NewResetTokenRepository(db)

	// Services
	mailer := service.NewSMTPMailer(config)
	jwtService := service.NewJWTService(config.JWT.Secret, config.JWT.Expiry)
	otpService := service.NewOTPService(otpRepo, config.OTP)
	sessionService := service.NewRefreshTokenService(refreshRepo, userRepo, jwtService, config.Refresh)
	authService := service.NewAuthService(userRepo, otpService, sessionService, jwtService, mailer, config)
	resetService := service.NewPasswordResetService(userRepo, resetRepo, sessionService, mailer, config)
	userService := service.NewUserService(userRepo, sessionService)

	// Background token sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	cleanup := service.NewCleanupService(otpService, sessionService, resetService, config.Refresh.CleanupPeriod)
	go cleanup.Start(sweepCtx)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, sessionService, config)
	userHandler := handler.NewUserHandler(userService)
	passwordHandler := handler.NewPasswordHandler(resetService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	r := router.NewRouter(
		authHandler,
		userHandler,
		passwordHandler,
		healthHandler,
		jwtService,
		userRepo,
		redisClient,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
