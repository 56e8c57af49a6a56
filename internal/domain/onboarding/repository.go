package onboarding

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// RequestRepository defines persistence for onboarding requests
type RequestRepository interface {
	// FindByID loads a request with its documents and history
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Request, error)

	// FindByInvitationHash loads the request owning a portal token hash.
	// Portal calls carry no tenant, so the lookup spans tenants.
	FindByInvitationHash(ctx context.Context, tokenHash string) (*Request, error)

	// FindAll lists requests. Supported filters: status, requester_id,
	// supplier_id, manager_id.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Request, int64, error)

	// FindOpen returns every non-terminal request of the tenant
	FindOpen(ctx context.Context, tenantID uuid.UUID) ([]Request, error)

	// Create inserts a new request
	Create(ctx context.Context, r *Request) error

	// SaveWithLock updates a request only if its stored version matches the
	// loaded one, then increments the version
	SaveWithLock(ctx context.Context, r *Request) error

	// GenerateRequestNumber returns the next ONB-YYYY-NNNNN number
	GenerateRequestNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
