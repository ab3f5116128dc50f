package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cardmarket/internal/config"
	"cardmarket/pkg/log"
)

var Client *redis.Client

// Init initializes the Redis client with the given configuration.
func Init(cfg *config.Config) error {
	Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}

	log.Info("Redis connected successfully")
	return nil
}

// Close closes the Redis client connection.
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}

// GetClient returns the Redis client instance.
func GetClient() *redis.Client {
	return Client
}

// Health checks the health status of the Redis client.
func Health() error {
	if Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return Client.Ping(ctx).Err()
}
