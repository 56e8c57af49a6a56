package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Login    string // Username or email
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserDTO   `json:"user"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// CreateUserInput is the input for creating a user
type CreateUserInput struct {
	Username    string     `json:"username" binding:"required,min=3,max=100"`
	Email       string     `json:"email" binding:"required,email,max=200"`
	Password    string     `json:"password" binding:"required,min=8,max=72"`
	DisplayName string     `json:"display_name" binding:"max=200"`
	Role        string     `json:"role" binding:"required,oneof=EMPLOYEE PROCUREMENT FINANCE ADMIN"`
	ManagerID   *uuid.UUID `json:"manager_id"`
	Department  string     `json:"department" binding:"max=100"`
}

// UpdateUserInput is the input for updating a user. Nil fields are left unchanged.
type UpdateUserInput struct {
	Email        *string    `json:"email" binding:"omitempty,email,max=200"`
	DisplayName  *string    `json:"display_name" binding:"omitempty,max=200"`
	Role         *string    `json:"role" binding:"omitempty,oneof=EMPLOYEE PROCUREMENT FINANCE ADMIN"`
	ManagerID    *uuid.UUID `json:"manager_id"`
	ClearManager bool       `json:"clear_manager"`
	Department   *string    `json:"department" binding:"omitempty,max=100"`
	Status       *string    `json:"status" binding:"omitempty,oneof=active deactivated"`
	Password     *string    `json:"password" binding:"omitempty,min=8,max=72"`
}

// UserDTO is the API representation of a user
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	ManagerID   *uuid.UUID `json:"manager_id,omitempty"`
	Department  string     `json:"department,omitempty"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListResult is a page of users
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.Name(),
		Role:        u.Role.String(),
		Permissions: u.Role.Permissions(),
		ManagerID:   u.ManagerID,
		Department:  u.Department,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
