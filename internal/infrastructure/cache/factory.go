package cache

import (
	"context"

	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the Redis-backed stores, or their in-memory fallbacks
type Stores struct {
	Redemption shared.RedemptionStore
	Views      ViewCache
	client     *redis.Client
}

// Distributed reports whether the stores are shared across instances
func (s *Stores) Distributed() bool {
	return s.client != nil
}

// Ping checks Redis when it backs the stores
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	_ = s.Redemption.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// NewStores builds the stores from configuration. When Redis is disabled or
// unreachable it falls back to process memory, which is only safe for a
// single API instance.
func NewStores(cfg config.RedisConfig, logger *zap.Logger) *Stores {
	if cfg.Enabled {
		client, err := NewRedisClient(cfg)
		if err == nil {
			logger.Info("Using Redis for approval redemption and dashboard cache", zap.String("addr", cfg.Addr()))
			return &Stores{
				Redemption: NewRedisRedemptionStore(client, ""),
				Views:      NewRedisViewCache(client),
				client:     client,
			}
		}
		logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Approval links could be replayed across instances.",
			zap.Error(err),
		)
	}
	return &Stores{
		Redemption: NewInMemoryRedemptionStore(),
		Views:      NewInMemoryViewCache(),
	}
}
