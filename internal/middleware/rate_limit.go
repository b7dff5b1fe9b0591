package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edwardnovrizal/api-panel/internal/constants"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
	"github.com/edwardnovrizal/api-panel/pkg/redis"
)

// RateLimit enforces a fixed window per client IP and path, backed by
// redis so the limit holds across instances. With redis disabled the
// middleware passes everything through.
func RateLimit(client redis.Client, maxRequest int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !client.IsEnabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("%s%s:%s", constants.RateLimitKeyPrefix, c.ClientIP(), c.FullPath())

		count, err := client.Incr(ctx, key)
		if err != nil {
			// Fail open; rate limiting is protection, not correctness
			logger.GetLogger().Warn("Rate limit check failed",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count == 1 {
			if err := client.Expire(ctx, key, window); err != nil {
				logger.GetLogger().Warn("Rate limit expire failed",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}

		if count > int64(maxRequest) {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.FullPath()),
				zap.Int64("count", count),
				zap.Int("max_requests", maxRequest),
			)
			c.Header("Retry-After", fmt.Sprintf("%.0f", window.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				constants.BuildErrorResponse("Too many requests, please try again later", gin.H{
					"retry_after": window.Seconds(),
				}))
			return
		}

		c.Next()
	}
}
