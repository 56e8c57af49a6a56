package identity

import "github.com/google/uuid"

// Principal is the authenticated user on whose behalf a use case runs
type Principal struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Name     string
	Role     Role
}

// PrincipalOf returns the principal for a loaded user
func PrincipalOf(u *User) Principal {
	return Principal{TenantID: u.TenantID, UserID: u.ID, Name: u.Name(), Role: u.Role}
}

// Can reports whether the principal's role grants the permission
func (p Principal) Can(permission string) bool {
	return p.Role.HasPermission(permission)
}

// IsAdmin reports whether the principal is a tenant administrator
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
