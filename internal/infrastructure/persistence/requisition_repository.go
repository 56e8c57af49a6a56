package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormRequisitionRepository implements requisition.RequisitionRepository using GORM
type GormRequisitionRepository struct {
	db *gorm.DB
}

// NewGormRequisitionRepository creates a new GormRequisitionRepository
func NewGormRequisitionRepository(db *gorm.DB) *GormRequisitionRepository {
	return &GormRequisitionRepository{db: db}
}

func (r *GormRequisitionRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") })
}

// FindByID loads a requisition with lines and approval steps
func (r *GormRequisitionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*requisition.Requisition, error) {
	var m models.RequisitionModel
	if err := r.withChildren(conn(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists requisitions with their steps, so callers can tell who the
// current approver is
func (r *GormRequisitionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]requisition.Requisition, int64, error) {
	query := conn(ctx, r.db).Model(&models.RequisitionModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "title", "number", "supplier_name"))
	for _, key := range []string{"status", "requester_id", "supplier_id"} {
		if v, ok := filterString(filter, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RequisitionModel
	if err := query.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Scopes(orderScope(filter, RequisitionSortFields, "created_at"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]requisition.Requisition, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindPendingApproval returns every requisition awaiting a decision
func (r *GormRequisitionRepository) FindPendingApproval(ctx context.Context, tenantID uuid.UUID) ([]requisition.Requisition, error) {
	var rows []models.RequisitionModel
	if err := r.withChildren(conn(ctx, r.db)).
		Where("tenant_id = ? AND status = ?", tenantID, requisition.StatusPendingApproval).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]requisition.Requisition, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new requisition with its lines
func (r *GormRequisitionRepository) Create(ctx context.Context, req *requisition.Requisition) error {
	m := models.RequisitionModelFromDomain(req)
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
}

// SaveWithLock updates a requisition under optimistic locking. Lines are
// replaced and steps upserted in the same transaction.
func (r *GormRequisitionRepository) SaveWithLock(ctx context.Context, req *requisition.Requisition) error {
	m := models.RequisitionModelFromDomain(req)
	now := time.Now().UTC()

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RequisitionModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", req.TenantID, req.ID, req.Version).
			Updates(map[string]interface{}{
				"department":       m.Department,
				"title":            m.Title,
				"justification":    m.Justification,
				"supplier_id":      m.SupplierID,
				"supplier_name":    m.SupplierName,
				"contract_id":      m.ContractID,
				"needed_by":        m.NeededBy,
				"currency":         m.Currency,
				"total_amount":     m.TotalAmount,
				"status":           m.Status,
				"submitted_at":     m.SubmittedAt,
				"approved_at":      m.ApprovedAt,
				"ordered_at":       m.OrderedAt,
				"po_number":        m.PONumber,
				"rejection_reason": m.RejectionReason,
				"cancel_reason":    m.CancelReason,
				"version":          req.Version + 1,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("requisition_id = ?", req.ID).
			Delete(&models.RequisitionLineModel{}).Error; err != nil {
			return fmt.Errorf("replace requisition lines: %w", err)
		}
		if len(m.Lines) > 0 {
			if err := tx.Create(&m.Lines).Error; err != nil {
				return fmt.Errorf("replace requisition lines: %w", err)
			}
		}
		if len(m.Steps) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"approver_id", "status", "activated_at", "decided_at", "decider_id",
					"decider_name", "comment", "stage_entered_at", "reminder_count",
					"last_reminder_at", "escalated",
				}),
			}).Create(&m.Steps).Error; err != nil {
				return fmt.Errorf("save approval steps: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	req.Version++
	req.UpdatedAt = now
	return nil
}

// GenerateNumber returns the next REQ-YYYY-NNNNN number
func (r *GormRequisitionRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("REQ-%d-", time.Now().Year())
	return nextNumber(ctx, r.db, "requisitions", "number", tenantID, prefix)
}

var _ requisition.RequisitionRepository = (*GormRequisitionRepository)(nil)
