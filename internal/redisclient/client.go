package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client caches read-mostly catalog data in Redis. Only the catalog read
// paths touch it; the order orchestrator always reserves against the
// database directly so it never acts on stale stock.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func productKey(id int64, includeInactive bool) string {
	return fmt.Sprintf("product:%d:%t", id, includeInactive)
}

// GetProduct returns a cached product, or (nil, false) on a miss.
func (c *Client) GetProduct(ctx context.Context, id int64, includeInactive bool) (*models.Product, bool, error) {
	data, err := c.rdb.Get(ctx, productKey(id, includeInactive)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, false, err
	}
	return &product, true, nil
}

// SetProduct caches a product under a fixed TTL.
func (c *Client) SetProduct(ctx context.Context, product *models.Product, includeInactive bool) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.ID, includeInactive), data, c.ttl).Err()
}

// InvalidateProduct drops both cache variants of a product after a
// catalog write.
func (c *Client) InvalidateProduct(ctx context.Context, id int64) error {
	return c.rdb.Del(ctx, productKey(id, false), productKey(id, true)).Err()
}
