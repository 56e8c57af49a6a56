package spend

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// RecordRepository defines persistence for spend records
type RecordRepository interface {
	// FindByID finds a spend record within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Record, error)

	// FindAll lists records. Supported filters: supplier_id, category,
	// source, from, to (time.Time on spent_on).
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Record, int64, error)

	// ExistsForRequisition reports whether spend was already recorded for
	// the requisition
	ExistsForRequisition(ctx context.Context, tenantID, requisitionID uuid.UUID) (bool, error)

	// Save inserts a spend record
	Save(ctx context.Context, r *Record) error

	// SaveBatch inserts several records in one transaction
	SaveBatch(ctx context.Context, records []*Record) error

	// Delete removes a record
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
