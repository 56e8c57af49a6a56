package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procurement/backend/internal/domain/notification"
)

// NotificationModel records one outbound email
type NotificationModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Recipient   string              `gorm:"type:varchar(200);not null;index"`
	Template    string              `gorm:"type:varchar(60);not null"`
	Subject     string              `gorm:"type:varchar(300)"`
	Status      notification.Status `gorm:"type:varchar(10);not null"`
	Error       string              `gorm:"type:text"`
	RelatedType string              `gorm:"type:varchar(30)"`
	RelatedID   *uuid.UUID          `gorm:"type:uuid;index"`
	SentAt      time.Time           `gorm:"not null;index"`
	CreatedAt   time.Time           `gorm:"not null"`
	UpdatedAt   time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	n := &notification.Notification{
		TenantID:    m.TenantID,
		Recipient:   m.Recipient,
		Template:    m.Template,
		Subject:     m.Subject,
		Status:      m.Status,
		Error:       m.Error,
		RelatedType: m.RelatedType,
		RelatedID:   m.RelatedID,
		SentAt:      m.SentAt,
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	n.UpdatedAt = m.UpdatedAt
	return n
}

// NotificationModelFromDomain creates a model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:          n.ID,
		TenantID:    n.TenantID,
		Recipient:   n.Recipient,
		Template:    n.Template,
		Subject:     n.Subject,
		Status:      n.Status,
		Error:       n.Error,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		SentAt:      n.SentAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
