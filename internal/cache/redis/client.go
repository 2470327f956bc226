package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/pkg/logger"
)

// Client caches validation results keyed by scheme and a hash of the
// normalized record. Freshness is enforced by InvalidateScheme, which is
// called whenever a scheme's rule material changes, plus the entry TTL.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetResult(ctx context.Context, recordHash string, result *evaluation.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("result:%s", recordHash), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set result cache: %w", err)
	}

	logger.Debug("Result cached", zap.String("record_hash", recordHash), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *Client) GetResult(ctx context.Context, recordHash string) (*evaluation.Result, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("result:%s", recordHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get result cache: %w", err)
	}

	var result evaluation.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	logger.Debug("Result cache hit", zap.String("record_hash", recordHash))
	return &result, true, nil
}

// InvalidateScheme drops every cached result for a scheme. Called after a
// rulebook ingestion changes the scheme's rule material.
func (c *Client) InvalidateScheme(ctx context.Context, scheme string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("result:%s:*", scheme), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Result cache invalidated", zap.String("scheme", scheme))
	return nil
}
