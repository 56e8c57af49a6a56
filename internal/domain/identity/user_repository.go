package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// FindByID finds a user by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByIDs finds several users at once; missing IDs are skipped
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*User, error)

	// FindByLogin finds a user by username or email across tenants
	FindByLogin(ctx context.Context, login string) (*User, error)

	// FindAll returns users for a tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)

	// FindActiveByRole returns every active user holding the role
	FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role Role) ([]*User, error)

	// ExistsByUsername checks if a username already exists in the tenant
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)

	// ExistsByEmail checks if an email already exists in the tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// ActiveTenantIDs lists tenants that have at least one active user
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	Keyword  string
	Status   *UserStatus
	Role     *Role
	Page     int
	PageSize int
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:     1,
		PageSize: 20,
	}
}

// Offset returns the offset for pagination
func (f UserFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f UserFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
