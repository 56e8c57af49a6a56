package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewCache stores rendered dashboard views per tenant
type ViewCache interface {
	// Get loads a cached value into dst. It returns false on a miss.
	Get(ctx context.Context, tenantID uuid.UUID, view string, dst any) (bool, error)
	// Set stores a value for ttl
	Set(ctx context.Context, tenantID uuid.UUID, view string, value any, ttl time.Duration) error
	// InvalidateTenant drops every cached view of the tenant
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

const viewKeyPrefix = "dashboard:"

func viewKey(tenantID uuid.UUID, view string) string {
	return viewKeyPrefix + tenantID.String() + ":" + view
}

// RedisViewCache keeps views as JSON strings in Redis
type RedisViewCache struct {
	client *redis.Client
}

// NewRedisViewCache creates a view cache on an existing client
func NewRedisViewCache(client *redis.Client) *RedisViewCache {
	return &RedisViewCache{client: client}
}

// Get implements ViewCache
func (c *RedisViewCache) Get(ctx context.Context, tenantID uuid.UUID, view string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, viewKey(tenantID, view)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached view: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached view: %w", err)
	}
	return true, nil
}

// Set implements ViewCache
func (c *RedisViewCache) Set(ctx context.Context, tenantID uuid.UUID, view string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	if err := c.client.Set(ctx, viewKey(tenantID, view), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache view: %w", err)
	}
	return nil
}

// InvalidateTenant scans the tenant's keys and deletes them
func (c *RedisViewCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	pattern := viewKeyPrefix + tenantID.String() + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached views: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

var _ ViewCache = (*RedisViewCache)(nil)

type viewEntry struct {
	raw       []byte
	expiresAt time.Time
}

// InMemoryViewCache is the single-instance fallback
type InMemoryViewCache struct {
	mu      sync.RWMutex
	entries map[string]viewEntry
}

// NewInMemoryViewCache creates an empty cache
func NewInMemoryViewCache() *InMemoryViewCache {
	return &InMemoryViewCache{entries: make(map[string]viewEntry)}
}

// Get implements ViewCache
func (c *InMemoryViewCache) Get(_ context.Context, tenantID uuid.UUID, view string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[viewKey(tenantID, view)]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached view: %w", err)
	}
	return true, nil
}

// Set implements ViewCache
func (c *InMemoryViewCache) Set(_ context.Context, tenantID uuid.UUID, view string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[viewKey(tenantID, view)] = viewEntry{raw: raw, expiresAt: time.Now().Add(ttl)}
	return nil
}

// InvalidateTenant implements ViewCache
func (c *InMemoryViewCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	prefix := viewKeyPrefix + tenantID.String() + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

var _ ViewCache = (*InMemoryViewCache)(nil)
