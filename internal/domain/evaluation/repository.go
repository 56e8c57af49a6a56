package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// EvaluationRepository defines persistence for supplier evaluations
type EvaluationRepository interface {
	// FindByID finds an evaluation within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Evaluation, error)

	// FindAll lists evaluations. Supported filters: supplier_id, period,
	// evaluator_id.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Evaluation, int64, error)

	// Exists reports whether the evaluator already rated the supplier for
	// the period
	Exists(ctx context.Context, tenantID, supplierID, evaluatorID uuid.UUID, period string) (bool, error)

	// Save creates or updates an evaluation
	Save(ctx context.Context, e *Evaluation) error

	// Scorecard aggregates every evaluation of a supplier
	Scorecard(ctx context.Context, tenantID, supplierID uuid.UUID) (*Scorecard, error)
}
