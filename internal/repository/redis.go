package repository

import (
	"context"
	"fmt"
	"time"

	"peregovorka/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisScheduleCache keeps encoded day collections in Redis with a TTL.
type RedisScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisScheduleCache(client *redis.Client, ttl time.Duration) *RedisScheduleCache {
	return &RedisScheduleCache{client: client, ttl: ttl}
}

func dayKey(key string) string {
	return "day_schedule:" + key
}

func (c *RedisScheduleCache) GetDay(ctx context.Context, key string) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := c.client.Get(ctx, dayKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get day from redis: %w", err)
	}
	return val, true, nil
}

func (c *RedisScheduleCache) SetDay(ctx context.Context, key string, payload []byte) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Set(ctx, dayKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set day in redis: %w", err)
	}
	return nil
}

func (c *RedisScheduleCache) InvalidateDay(ctx context.Context, key string) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, dayKey(key)).Err(); err != nil {
		return fmt.Errorf("delete day from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
