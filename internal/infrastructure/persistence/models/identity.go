package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procurement/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	TenantAggregateModel
	Username     string              `gorm:"type:varchar(100);not null"`
	Email        string              `gorm:"type:varchar(200);not null"`
	DisplayName  string              `gorm:"type:varchar(200)"`
	PasswordHash string              `gorm:"type:varchar(255);not null"`
	Role         identity.Role       `gorm:"type:varchar(20);not null"`
	ManagerID    *uuid.UUID          `gorm:"type:uuid;index"`
	Department   string              `gorm:"type:varchar(100)"`
	Status       identity.UserStatus `gorm:"type:varchar(20);not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		ManagerID:           m.ManagerID,
		Department:          m.Department,
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
	}
}

// FromDomain populates the model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.ManagerID = u.ManagerID
	m.Department = u.Department
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
