package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryRedemptionStore_Redeem(t *testing.T) {
	store := NewInMemoryRedemptionStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first redemption wins", func(t *testing.T) {
		ok, err := store.Redeem(ctx, "jti-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Redeem(ctx, "jti-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "replayed key must be refused")

		used, err := store.IsRedeemed(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, used)
	})

	t.Run("released keys can be redeemed again", func(t *testing.T) {
		ok, err := store.Redeem(ctx, "jti-3", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.Release(ctx, "jti-3"))
		used, err := store.IsRedeemed(ctx, "jti-3")
		require.NoError(t, err)
		assert.False(t, used)

		ok, err = store.Redeem(ctx, "jti-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, store.Release(ctx, "never-redeemed"))
	})

	t.Run("expired keys can be redeemed again", func(t *testing.T) {
		ok, err := store.Redeem(ctx, "jti-2", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		used, err := store.IsRedeemed(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, used)

		ok, err = store.Redeem(ctx, "jti-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cleanup drops expired keys", func(t *testing.T) {
		_, _ = store.Redeem(ctx, "jti-3", time.Millisecond)
		time.Sleep(5 * time.Millisecond)
		before := store.Size()
		store.cleanup()
		assert.Less(t, store.Size(), before)
	})
}

func TestInMemoryRedemptionStore_ConcurrentRedeem(t *testing.T) {
	store := NewInMemoryRedemptionStore()
	defer store.Close()

	const n = 50
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			ok, _ := store.Redeem(context.Background(), "shared", time.Hour)
			results <- ok
		}()
	}
	wins := 0
	for i := 0; i < n; i++ {
		if <-results {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestInMemoryRedemptionStore_CloseTwice(t *testing.T) {
	store := NewInMemoryRedemptionStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestInMemoryViewCache(t *testing.T) {
	c := NewInMemoryViewCache()
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	type view struct {
		Total int `json:"total"`
	}

	var got view
	hit, err := c.Get(ctx, tenantA, "spend", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, tenantA, "spend", view{Total: 7}, time.Minute))
	require.NoError(t, c.Set(ctx, tenantA, "contracts", view{Total: 3}, time.Minute))
	require.NoError(t, c.Set(ctx, tenantB, "spend", view{Total: 9}, time.Minute))

	hit, err = c.Get(ctx, tenantA, "spend", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, got.Total)

	require.NoError(t, c.InvalidateTenant(ctx, tenantA))

	hit, _ = c.Get(ctx, tenantA, "spend", &got)
	assert.False(t, hit)
	hit, _ = c.Get(ctx, tenantA, "contracts", &got)
	assert.False(t, hit)
	hit, _ = c.Get(ctx, tenantB, "spend", &got)
	assert.True(t, hit, "other tenants keep their views")
	assert.Equal(t, 9, got.Total)
}

func TestInMemoryViewCache_Expiry(t *testing.T) {
	c := NewInMemoryViewCache()
	tenantID := uuid.New()
	require.NoError(t, c.Set(context.Background(), tenantID, "summary", map[string]int{"a": 1}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got map[string]int
	hit, err := c.Get(context.Background(), tenantID, "summary", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewStores_FallsBackWithoutRedis(t *testing.T) {
	stores := NewStores(config.RedisConfig{Enabled: false}, zap.NewNop())
	defer stores.Close()

	assert.False(t, stores.Distributed())
	assert.IsType(t, &InMemoryRedemptionStore{}, stores.Redemption)
	assert.IsType(t, &InMemoryViewCache{}, stores.Views)
}
