package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/notification"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormNotificationRepository implements notification.NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save records a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return conn(ctx, r.db).Create(models.NotificationModelFromDomain(n)).Error
}

// FindAll lists notifications, newest first by default
func (r *GormNotificationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]notification.Notification, int64, error) {
	query := conn(ctx, r.db).Model(&models.NotificationModel{}).Scopes(tenantScope(tenantID))
	for _, key := range []string{"related_id", "recipient", "status", "template"} {
		if v, ok := filterString(filter, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.NotificationModel
	if err := query.Scopes(orderScope(filter, NotificationSortFields, "sent_at"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]notification.Notification, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)
