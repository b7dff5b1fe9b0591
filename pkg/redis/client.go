package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edwardnovrizal/api-panel/config"
)

// Client is the subset of redis operations the application uses.
// A noop implementation backs deployments without redis.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	IsEnabled() bool
	Close() error
}

// ErrNil is returned by Get when the key does not exist
var ErrNil = goredis.Nil

type redisClient struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewClient creates a redis client from configuration.
// Returns a disabled noop client when redis is turned off or unreachable.
func NewClient(cfg *config.Config, log *zap.Logger) Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, using noop client")
		return &noopClient{}
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, falling back to noop client",
			zap.String("addr", cfg.RedisAddress()),
			zap.Error(err),
		)
		_ = client.Close()
		return &noopClient{}
	}

	log.Info("Redis connected", zap.String("addr", cfg.RedisAddress()))
	return &redisClient{client: client, logger: log}
}

func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisClient) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *redisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}

func (r *redisClient) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) IsEnabled() bool {
	return true
}

func (r *redisClient) Close() error {
	return r.client.Close()
}

// noopClient satisfies Client when redis is not available
type noopClient struct{}

func (n *noopClient) Get(ctx context.Context, key string) (string, error) {
	return "", ErrNil
}

func (n *noopClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (n *noopClient) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (n *noopClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func (n *noopClient) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (n *noopClient) Ping(ctx context.Context) error {
	return fmt.Errorf("redis is disabled")
}

func (n *noopClient) IsEnabled() bool {
	return false
}

func (n *noopClient) Close() error {
	return nil
}
