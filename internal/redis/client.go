// Package redis remembers webhook delivery IDs so a replayed, correctly
// signed request can be refused.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	PoolSize  int    `json:"pool_size"`
	KeyPrefix string `json:"key_prefix"`
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "xhub:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// MarkDelivery records id for ttl. It returns true the first time an id is
// seen and false while the earlier record is still live.
func (c *Client) MarkDelivery(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("delivery id is required")
	}

	first, err := c.rdb.SetNX(ctx, c.deliveryKey(id), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery: %w", err)
	}
	return first, nil
}

// ForgetDelivery removes the record for id so it may be processed again.
func (c *Client) ForgetDelivery(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, c.deliveryKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to forget delivery: %w", err)
	}
	return nil
}

func (c *Client) deliveryKey(id string) string {
	return c.config.KeyPrefix + "delivery:" + id
}
