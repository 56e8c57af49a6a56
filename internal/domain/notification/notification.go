package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// Status of a sent email
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Notification is the audit record of one outbound email
type Notification struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	Recipient   string
	Template    string
	Subject     string
	Status      Status
	Error       string
	RelatedType string
	RelatedID   *uuid.UUID
	SentAt      time.Time
}

// NewNotification records the outcome of a send attempt
func NewNotification(tenantID uuid.UUID, recipient, template, subject, relatedType string, relatedID *uuid.UUID, sendErr error) *Notification {
	n := &Notification{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Recipient:   recipient,
		Template:    template,
		Subject:     subject,
		Status:      StatusSent,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		SentAt:      shared.Now(),
	}
	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = truncate(sendErr.Error(), 1000)
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NotificationRepository stores the email audit log
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error

	// FindAll lists notifications. Supported filters: related_id,
	// recipient, status, template.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Notification, int64, error)
}
