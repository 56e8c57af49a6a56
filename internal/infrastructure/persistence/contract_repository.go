package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormContractRepository implements contract.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract within a tenant
func (r *GormContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	var m models.ContractModel
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

// FindAll lists contracts matching the filter
func (r *GormContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contract.Contract, int64, error) {
	query := conn(ctx, r.db).Model(&models.ContractModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "title", "number", "supplier_name"))
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filterString(filter, "supplier_id"); ok {
		query = query.Where("supplier_id = ?", v)
	}
	if days, ok := expiringWithin(filter); ok {
		now := time.Now().UTC()
		query = query.Where("status = ? AND end_date >= ? AND end_date <= ?",
			contract.StatusActive, now, now.AddDate(0, 0, days))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ContractModel
	if err := query.Scopes(orderScope(filter, ContractSortFields, "end_date"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]contract.Contract, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

func expiringWithin(filter shared.Filter) (int, bool) {
	switch v := filter.Filters["expiring_within"].(type) {
	case int:
		return v, v > 0
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil && n > 0
	}
	return 0, false
}

// FindActive returns every active contract of the tenant
func (r *GormContractRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]contract.Contract, error) {
	var rows []models.ContractModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND status = ?", tenantID, contract.StatusActive).
		Order("end_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]contract.Contract, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new contract
func (r *GormContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	return conn(ctx, r.db).Create(models.ContractModelFromDomain(c)).Error
}

// SaveWithLock updates a contract under optimistic locking
func (r *GormContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	now := time.Now().UTC()
	result := conn(ctx, r.db).Model(&models.ContractModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, c.Version).
		Updates(map[string]interface{}{
			"title":                  c.Title,
			"description":            c.Description,
			"value":                  c.Value,
			"currency":               c.Currency,
			"start_date":             c.StartDate,
			"end_date":               c.EndDate,
			"auto_renew":             c.AutoRenew,
			"renewal_notice_days":    c.RenewalNoticeDays,
			"status":                 c.Status,
			"document_key":           c.DocumentKey,
			"renewal_notice_sent_at": c.RenewalNoticeSentAt,
			"activated_at":           c.ActivatedAt,
			"terminated_at":          c.TerminatedAt,
			"termination_reason":     c.TerminationReason,
			"version":                c.Version + 1,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	c.Version++
	c.UpdatedAt = now
	return nil
}

// GenerateNumber returns the next CON-YYYY-NNNNN number
func (r *GormContractRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("CON-%d-", time.Now().Year())
	return nextNumber(ctx, r.db, "contracts", "number", tenantID, prefix)
}

var _ contract.ContractRepository = (*GormContractRepository)(nil)
