package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
)

// Sentinel errors returned by the cache.
var (
	// ErrDisabled is returned when the cache is configured off.
	ErrDisabled = errors.New("cache: disabled")

	// ErrMiss is returned when a key is absent or expired.
	ErrMiss = errors.New("cache: miss")
)

// connectTimeout bounds the initial ping.
const connectTimeout = 5 * time.Second

// Cache is a Redis-backed shared cache. Safe for concurrent use.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
//
// Returns:
//   - *Cache: the connected cache
//   - error: ErrDisabled when the config disables the cache, or the
//     connection failure
func New(cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connecting to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get retrieves a raw string value.
//
// Returns ErrMiss when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache: get %q: %w", key, err)
	}
	return value, nil
}

// Set stores a raw string value with a TTL. A zero TTL stores without
// expiry.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

// GetJSON retrieves a value and unmarshals it into dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("cache: decoding %q: %w", key, err)
	}
	return nil
}

// SetJSON marshals a value and stores it with a TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %q: %w", key, err)
	}
	return c.Set(ctx, key, string(raw), ttl)
}

// Delete removes one or more keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// AcquireLock attempts to take a named lock via SET NX.
//
// Returns:
//   - bool: true when the lock was acquired, false on contention
//   - error: non-nil only on transport failure
func (c *Cache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: acquiring lock %q: %w", key, err)
	}
	return acquired, nil
}

// ReleaseLock frees a named lock. Releasing an expired lock is harmless.
func (c *Cache) ReleaseLock(ctx context.Context, key string) error {
	return c.Delete(ctx, key)
}

// PushCapped prepends a JSON-encoded entry to a list and trims the list to
// the given maximum length. Used for the executed-decision log ring.
func (c *Cache) PushCapped(ctx context.Context, key string, value any, maxLen int64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding entry for %q: %w", key, err)
	}

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, string(raw))
	pipe.LTrim(ctx, key, 0, maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: pushing to %q: %w", key, err)
	}
	return nil
}

// Recent returns up to n most-recent raw entries from a capped list,
// newest first.
func (c *Cache) Recent(ctx context.Context, key string, n int64) ([]string, error) {
	entries, err := c.client.LRange(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: reading %q: %w", key, err)
	}
	return entries, nil
}
