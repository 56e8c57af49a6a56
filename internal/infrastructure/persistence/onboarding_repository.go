package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormOnboardingRepository implements onboarding.RequestRepository using GORM
type GormOnboardingRepository struct {
	db *gorm.DB
}

// NewGormOnboardingRepository creates a new GormOnboardingRepository
func NewGormOnboardingRepository(db *gorm.DB) *GormOnboardingRepository {
	return &GormOnboardingRepository{db: db}
}

func (r *GormOnboardingRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at ASC") }).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("at ASC") })
}

// FindByID loads a request with its documents and history
func (r *GormOnboardingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*onboarding.Request, error) {
	var m models.OnboardingRequestModel
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

// FindByInvitationHash loads the request owning a portal token hash
func (r *GormOnboardingRepository) FindByInvitationHash(ctx context.Context, tokenHash string) (*onboarding.Request, error) {
	if tokenHash == "" {
		return nil, shared.ErrNotFound
	}
	var m models.OnboardingRequestModel
	if err := r.withChildren(conn(ctx, r.db)).
		Where("invitation_token_hash = ?", tokenHash).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists requests without their children
func (r *GormOnboardingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]onboarding.Request, int64, error) {
	query := conn(ctx, r.db).Model(&models.OnboardingRequestModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "supplier_name", "request_number", "supplier_email"))
	for _, key := range []string{"status", "requester_id", "supplier_id", "manager_id"} {
		if v, ok := filterString(filter, key); ok {
			query = query.Where(key+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OnboardingRequestModel
	if err := query.Scopes(orderScope(filter, OnboardingSortFields, "created_at"), pageScope(filter)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]onboarding.Request, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindOpen returns every non-terminal request of the tenant with children
func (r *GormOnboardingRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) ([]onboarding.Request, error) {
	var rows []models.OnboardingRequestModel
	if err := r.withChildren(conn(ctx, r.db)).
		Where("tenant_id = ? AND status IN ?", tenantID, onboarding.OpenStatuses()).
		Order("stage_entered_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]onboarding.Request, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new request together with its documents and steps
func (r *GormOnboardingRepository) Create(ctx context.Context, req *onboarding.Request) error {
	m := models.OnboardingRequestModelFromDomain(req)
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
}

// SaveWithLock updates a request only if its stored version matches the
// loaded one. Documents are upserted and new steps appended in the same
// transaction.
func (r *GormOnboardingRepository) SaveWithLock(ctx context.Context, req *onboarding.Request) error {
	m := models.OnboardingRequestModelFromDomain(req)
	now := time.Now().UTC()

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OnboardingRequestModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", req.TenantID, req.ID, req.Version).
			Updates(map[string]interface{}{
				"reviewer_id":           m.ReviewerID,
				"supplier_name":         m.SupplierName,
				"supplier_email":        m.SupplierEmail,
				"status":                m.Status,
				"stage_entered_at":      m.StageEnteredAt,
				"reminder_count":        m.ReminderCount,
				"last_reminder_at":      m.LastReminderAt,
				"escalated":             m.Escalated,
				"invitation_token_hash": m.InvitationTokenHash,
				"invitation_expires_at": m.InvitationExpiresAt,
				"required_documents":    m.RequiredDocuments,
				"revision_note":         m.RevisionNote,
				"requested_documents":   m.RequestedDocuments,
				"rejection_reason":      m.RejectionReason,
				"decided_at":            m.DecidedAt,
				"version":               req.Version + 1,
				"updated_at":            now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(m.Documents) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status"}),
			}).Create(&m.Documents).Error; err != nil {
				return fmt.Errorf("save onboarding documents: %w", err)
			}
		}
		if len(m.Steps) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&m.Steps).Error; err != nil {
				return fmt.Errorf("append onboarding steps: %w", err)
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

// GenerateRequestNumber returns the next ONB-YYYY-NNNNN number
func (r *GormOnboardingRepository) GenerateRequestNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("ONB-%d-", time.Now().Year())
	return nextNumber(ctx, r.db, "onboarding_requests", "request_number", tenantID, prefix)
}

var _ onboarding.RequestRepository = (*GormOnboardingRepository)(nil)
