package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormSupplierRepository implements supplier.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by ID within a tenant
func (r *GormSupplierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error) {
	var m models.SupplierModel
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

// FindByCode finds a supplier by its code within a tenant
func (r *GormSupplierRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*supplier.Supplier, error) {
	var m models.SupplierModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(strings.TrimSpace(code))).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists suppliers matching the filter, alphabetically by default
func (r *GormSupplierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]supplier.Supplier, int64, error) {
	query := conn(ctx, r.db).Model(&models.SupplierModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "name", "code", "contact_email"))
	if status, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", status)
	}
	if category, ok := filterString(filter, "category"); ok {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SupplierModel
	if err := query.Scopes(orderScopeDir(filter, SupplierSortFields, "name", "ASC"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]supplier.Supplier, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsOpenByName reports whether a non-inactive supplier uses the name
func (r *GormSupplierRepository) ExistsOpenByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.SupplierModel{}).
		Where("tenant_id = ? AND LOWER(name) = ? AND status <> ?",
			tenantID, strings.ToLower(strings.TrimSpace(name)), supplier.StatusInactive).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, s *supplier.Supplier) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.SupplierModelFromDomain(s)).Error
}

// GenerateCode returns the next SUP-NNNNN code for the tenant
func (r *GormSupplierRepository) GenerateCode(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.db, "suppliers", "code", tenantID, "SUP-")
}

var _ supplier.SupplierRepository = (*GormSupplierRepository)(nil)
