package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"bookingd/internal/config"
	"bookingd/internal/models"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisNotifier pushes notifications as JSON onto a Redis list for external consumers.
type RedisNotifier struct {
	client *redis.Client
	key    string
}

func NewRedisNotifier(client *redis.Client, key string) *RedisNotifier {
	return &RedisNotifier{client: client, key: key}
}

func (n *RedisNotifier) Notify(ctx context.Context, note models.Notification) error {
	if n.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.client.LPush(ctx, n.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push notification to redis: %w", err)
	}
	return nil
}
