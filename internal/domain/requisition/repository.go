package requisition

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// RequisitionRepository defines persistence for requisitions
type RequisitionRepository interface {
	// FindByID loads a requisition with lines and approval steps
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Requisition, error)

	// FindAll lists requisitions. Supported filters: status, requester_id,
	// supplier_id.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Requisition, int64, error)

	// FindPendingApproval returns every requisition awaiting a decision
	FindPendingApproval(ctx context.Context, tenantID uuid.UUID) ([]Requisition, error)

	// Create inserts a new requisition
	Create(ctx context.Context, r *Requisition) error

	// SaveWithLock updates a requisition under optimistic locking
	SaveWithLock(ctx context.Context, r *Requisition) error

	// GenerateNumber returns the next REQ-YYYY-NNNNN number
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
