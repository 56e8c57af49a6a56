package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/spend"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormSpendRepository implements spend.RecordRepository using GORM
type GormSpendRepository struct {
	db *gorm.DB
}

// NewGormSpendRepository creates a new GormSpendRepository
func NewGormSpendRepository(db *gorm.DB) *GormSpendRepository {
	return &GormSpendRepository{db: db}
}

// FindByID finds a spend record within a tenant
func (r *GormSpendRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*spend.Record, error) {
	var m models.SpendRecordModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists records matching the filter
func (r *GormSpendRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]spend.Record, int64, error) {
	query := conn(ctx, r.db).Model(&models.SpendRecordModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "description", "supplier_name", "invoice_number"))
	for _, key := range []string{"supplier_id", "category", "source"} {
		if v, ok := filterString(filter, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}
	if from, ok := filterTime(filter, "from"); ok {
		query = query.Where("spent_on >= ?", from)
	}
	if to, ok := filterTime(filter, "to"); ok {
		query = query.Where("spent_on <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SpendRecordModel
	if err := query.Scopes(orderScope(filter, SpendSortFields, "spent_on"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]spend.Record, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsForRequisition reports whether spend was already recorded for the requisition
func (r *GormSpendRepository) ExistsForRequisition(ctx context.Context, tenantID, requisitionID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.SpendRecordModel{}).
		Where("tenant_id = ? AND requisition_id = ?", tenantID, requisitionID).
		Count(&count).Error
	return count > 0, err
}

// Save inserts a spend record
func (r *GormSpendRepository) Save(ctx context.Context, rec *spend.Record) error {
	return conn(ctx, r.db).Create(models.SpendRecordModelFromDomain(rec)).Error
}

// SaveBatch inserts several records in one transaction
func (r *GormSpendRepository) SaveBatch(ctx context.Context, records []*spend.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*models.SpendRecordModel, len(records))
	for i, rec := range records {
		rows[i] = models.SpendRecordModelFromDomain(rec)
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 200).Error
	})
}

// Delete removes a record
func (r *GormSpendRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.SpendRecordModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ spend.RecordRepository = (*GormSpendRepository)(nil)
