package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalDesk/internal/model"
)

// RedisCache keeps JSON-encoded bar slices in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[INFO] redis bar cache connected: %s (ttl %s)", addr, ttl)
	return &RedisCache{client: client, ttl: ttl, prefix: "signaldesk:bars"}, nil
}

// Key returns the Redis key for a symbol and interval.
func Key(prefix, symbol, interval string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, symbol, interval)
}

func (c *RedisCache) Get(ctx context.Context, symbol, interval string) ([]model.Bar, error) {
	data, err := c.client.Get(ctx, Key(c.prefix, symbol, interval)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("decode cached bars: %w", err)
	}
	return bars, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol, interval string, bars []model.Bar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	if err := c.client.Set(ctx, Key(c.prefix, symbol, interval), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	log.Println("[INFO] closing redis bar cache")
	return c.client.Close()
}
