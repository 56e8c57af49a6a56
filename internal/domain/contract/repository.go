package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// ContractRepository defines persistence for contracts
type ContractRepository interface {
	// FindByID finds a contract within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)

	// FindAll lists contracts. Supported filters: status, supplier_id,
	// expiring_within (days, active contracts only).
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, int64, error)

	// FindActive returns every active contract of the tenant
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Contract, error)

	// Create inserts a new contract
	Create(ctx context.Context, c *Contract) error

	// SaveWithLock updates a contract under optimistic locking
	SaveWithLock(ctx context.Context, c *Contract) error

	// GenerateNumber returns the next CON-YYYY-NNNNN number
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
