package shared

import (
	"context"
	"time"
)

// RedemptionStore records single-use keys such as the IDs of emailed
// approval links
type RedemptionStore interface {
	// Redeem marks the key as used for ttl. It returns true if the key was
	// newly redeemed and false if it had already been used.
	Redeem(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets a redeemed key so it can be redeemed again
	Release(ctx context.Context, key string) error

	// IsRedeemed checks if a key has already been used
	IsRedeemed(ctx context.Context, key string) (bool, error)

	// Close releases the store's resources
	Close() error
}
