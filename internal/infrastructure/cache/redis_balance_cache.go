package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/redis/go-redis/v9"
)

// DefaultBalanceKeyPrefix is used when no prefix is configured
const DefaultBalanceKeyPrefix = "ironstore:balance:"

// DefaultBalanceTTL bounds staleness if an invalidation is ever lost
const DefaultBalanceTTL = 10 * time.Minute

// RedisBalanceCache implements BalanceCache using Redis
// This is suitable for distributed deployments where multiple instances
// need to share the projected balances
type RedisBalanceCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisBalanceCache creates a new Redis-based balance cache
func NewRedisBalanceCache(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisBalanceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBalanceCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisBalanceCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisBalanceCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisBalanceCache {
	if keyPrefix == "" {
		keyPrefix = DefaultBalanceKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &RedisBalanceCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached projection for a document, or false when absent
func (c *RedisBalanceCache) Get(ctx context.Context, documentID uuid.UUID) (*ledger.BalanceProjection, bool, error) {
	key := c.keyPrefix + documentID.String()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached balance: %w", err)
	}

	var projection ledger.BalanceProjection
	if err := json.Unmarshal(data, &projection); err != nil {
		// A corrupt entry is treated as a miss so the caller recomputes;
		// drop it so the next write replaces it
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	return &projection, true, nil
}

// Set stores the projection for a document with the configured TTL
func (c *RedisBalanceCache) Set(ctx context.Context, projection *ledger.BalanceProjection) error {
	key := c.keyPrefix + projection.DocumentID.String()

	data, err := json.Marshal(projection)
	if err != nil {
		return fmt.Errorf("failed to marshal balance projection: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

// Invalidate drops the cached projection for a document
func (c *RedisBalanceCache) Invalidate(ctx context.Context, documentID uuid.UUID) error {
	key := c.keyPrefix + documentID.String()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisBalanceCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisBalanceCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisBalanceCache implements BalanceCache
var _ appledger.BalanceCache = (*RedisBalanceCache)(nil)
