package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/pkg/database"
	"github.com/edwardnovrizal/api-panel/pkg/redis"
)

type HealthHandler struct {
	db    *gorm.DB
	redis redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	checks := gin.H{
		"database": "ok",
		"redis":    "ok",
	}

	if err := database.Ping(ctx, h.db); err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if !h.redis.IsEnabled() {
		checks["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		// Redis is an accelerator; it never fails the health check
		checks["redis"] = "unavailable"
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"app":       constants.AppName,
		"version":   constants.AppVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
