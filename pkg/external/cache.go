package external

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// CacheClient wraps Redis with caching for decoded vehicles. Redis is the
// hot tier in front of the durable store; its TTL is capacity hygiene, not
// a statement about data freshness, since a decoded VIN never changes.
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewCacheClient creates a new cache client
func NewCacheClient(config domain.CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// CachedVehicle represents a cached decoded vehicle with metadata
type CachedVehicle struct {
	Vehicle  *domain.DecodedVehicle `json:"vehicle"`
	CachedAt time.Time              `json:"cached_at"`
}

// GetVehicle retrieves a cached decoded vehicle. A corrupted entry is
// deleted and reported as a miss.
func (c *CacheClient) GetVehicle(ctx context.Context, vin string) (*domain.DecodedVehicle, bool, error) {
	key := vehicleKey(vin)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get vehicle cache: %w", err)
	}

	var cached CachedVehicle
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		_ = c.InvalidateVehicle(ctx, vin)
		return nil, false, nil
	}

	return cached.Vehicle, true, nil
}

// SetVehicle caches a decoded vehicle
func (c *CacheClient) SetVehicle(ctx context.Context, vin string, vehicle *domain.DecodedVehicle, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := CachedVehicle{
		Vehicle:  vehicle,
		CachedAt: time.Now(),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal vehicle cache data: %w", err)
	}

	return c.redis.Set(ctx, vehicleKey(vin), jsonData, ttl).Err()
}

// InvalidateVehicle removes the cached entry for a VIN
func (c *CacheClient) InvalidateVehicle(ctx context.Context, vin string) error {
	return c.redis.Del(ctx, vehicleKey(vin)).Err()
}

// GetStats returns cache statistics
func (c *CacheClient) GetStats(ctx context.Context) (map[string]interface{}, error) {
	info, err := c.redis.Info(ctx, "memory", "stats").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	keyspace, err := c.redis.Info(ctx, "keyspace").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis keyspace: %w", err)
	}

	return map[string]interface{}{
		"memory_info": info,
		"keyspace":    keyspace,
		"client_info": map[string]interface{}{
			"pool_stats": c.redis.PoolStats(),
		},
	}, nil
}

// Ping checks if Redis connection is alive
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *CacheClient) Close() error {
	return c.redis.Close()
}

// vehicleKey creates a cache key for a decoded vehicle. VINs are already
// normalized uppercase 17-character identifiers, so they are used directly.
func vehicleKey(vin string) string {
	return "vehicle:decode:" + vin
}
