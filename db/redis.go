package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lavai-rg/telegram-automation/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens a Redis connection used for publishing live scan
// progress to the dashboard. The connection is verified with a short ping.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
