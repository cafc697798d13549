package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eukexpress-backend/internal/config"
)

// Cache keys
const (
	DashboardKey     = "dashboard:summary"
	FilterOptionsKey = "shipments:filters"
	PublicTrackFmt   = "track:%s"
)

var client *redis.Client

// Init connects to redis. When redis is unreachable the client stays nil
// and every helper in this package becomes a no-op.
func Init(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, caching disabled")
		return nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		logger.Warn("redis unavailable, caching disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return err
	}
	client = c
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	return nil
}

// SetClient replaces the package client. A nil client disables caching.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client, nil when caching is disabled
func GetClient() *redis.Client {
	return client
}

// Close releases the connection pool
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// PublicTrackingKey is the cache key of a public tracking page
func PublicTrackingKey(tracking string) string {
	return fmt.Sprintf(PublicTrackFmt, tracking)
}

// InvalidateShipmentCaches clears everything derived from a shipment.
// Called after create, status update, intervention toggle, payment and delete.
func InvalidateShipmentCaches(ctx context.Context, tracking string) {
	InvalidateKeys(ctx, DashboardKey, FilterOptionsKey, PublicTrackingKey(tracking))
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
