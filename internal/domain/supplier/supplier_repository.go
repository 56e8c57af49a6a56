package supplier

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// FindByID finds a supplier by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)

	// FindByCode finds a supplier by its code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Supplier, error)

	// FindAll lists suppliers. Supported filters: status, category.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Supplier, int64, error)

	// ExistsOpenByName reports whether a non-inactive supplier already uses
	// the name, compared case-insensitively
	ExistsOpenByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error

	// GenerateCode returns the next SUP-NNNNN code for the tenant
	GenerateCode(ctx context.Context, tenantID uuid.UUID) (string, error)
}
