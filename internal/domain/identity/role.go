package identity

import "strings"

// Role is the procurement role a user holds within a tenant.
// Manager approval is not a role: it follows User.ManagerID.
type Role string

const (
	RoleEmployee    Role = "EMPLOYEE"
	RoleProcurement Role = "PROCUREMENT"
	RoleFinance     Role = "FINANCE"
	RoleAdmin       Role = "ADMIN"
)

// Permission codes carried in access tokens
const (
	PermProcurementManage = "procurement:manage"
	PermFinanceApprove    = "finance:approve"
	PermUsersManage       = "users:manage"
	PermDashboardView     = "dashboard:view"
)

var rolePermissions = map[Role][]string{
	RoleEmployee:    {},
	RoleProcurement: {PermProcurementManage, PermDashboardView},
	RoleFinance:     {PermFinanceApprove, PermDashboardView},
	RoleAdmin:       {PermProcurementManage, PermFinanceApprove, PermUsersManage, PermDashboardView},
}

// AllRoles returns every supported role
func AllRoles() []Role {
	return []Role{RoleEmployee, RoleProcurement, RoleFinance, RoleAdmin}
}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// Permissions returns a copy of the permissions granted by the role
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role grants the permission
func (r Role) HasPermission(code string) bool {
	for _, p := range rolePermissions[r] {
		if p == code {
			return true
		}
	}
	return false
}
