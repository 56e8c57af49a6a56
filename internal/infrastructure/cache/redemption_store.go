package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/procurement/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const redemptionKeyPrefix = "approval:redeemed:"

// RedisRedemptionStore implements RedemptionStore with SETNX, so several API
// instances agree on which approval links were already used
type RedisRedemptionStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRedemptionStore creates a store on an existing client
func NewRedisRedemptionStore(client *redis.Client, keyPrefix string) *RedisRedemptionStore {
	if keyPrefix == "" {
		keyPrefix = redemptionKeyPrefix
	}
	return &RedisRedemptionStore{client: client, keyPrefix: keyPrefix}
}

// Redeem sets the key only if it does not exist yet
func (s *RedisRedemptionStore) Redeem(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to redeem key: %w", err)
	}
	return ok, nil
}

// Release deletes the key
func (s *RedisRedemptionStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release key: %w", err)
	}
	return nil
}

// IsRedeemed checks if the key exists
func (s *RedisRedemptionStore) IsRedeemed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check redeemed key: %w", err)
	}
	return n > 0, nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisRedemptionStore) Close() error {
	return nil
}

var _ shared.RedemptionStore = (*RedisRedemptionStore)(nil)

type entry struct {
	expiresAt time.Time
}

// InMemoryRedemptionStore implements RedemptionStore in process memory.
// It is used when Redis is disabled and in tests.
type InMemoryRedemptionStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRedemptionStore creates the store and starts its cleanup loop
func NewInMemoryRedemptionStore() *InMemoryRedemptionStore {
	s := &InMemoryRedemptionStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Redeem marks the key as used unless an unexpired entry exists
func (s *InMemoryRedemptionStore) Redeem(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Release removes the key
func (s *InMemoryRedemptionStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// IsRedeemed checks for an unexpired entry
func (s *InMemoryRedemptionStore) IsRedeemed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && time.Now().Before(e.expiresAt), nil
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *InMemoryRedemptionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored keys
func (s *InMemoryRedemptionStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryRedemptionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryRedemptionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

var _ shared.RedemptionStore = (*InMemoryRedemptionStore)(nil)
