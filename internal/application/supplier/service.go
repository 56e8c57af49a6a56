// Package supplier holds the use cases of the supplier master record.
// Suppliers are created by onboarding; this service edits, suspends and
// lists them.
package supplier

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// SupplierService handles supplier-related business operations
type SupplierService struct {
	supplierRepo   supplier.SupplierRepository
	onboardingRepo onboarding.RequestRepository
	storage        storage.ObjectStorage
	eventPublisher shared.EventPublisher
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(
	supplierRepo supplier.SupplierRepository,
	onboardingRepo onboarding.RequestRepository,
	objectStorage storage.ObjectStorage,
) *SupplierService {
	return &SupplierService{
		supplierRepo:   supplierRepo,
		onboardingRepo: onboardingRepo,
		storage:        objectStorage,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SupplierService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get returns a supplier by ID
func (s *SupplierService) Get(ctx context.Context, tenantID, id uuid.UUID) (*SupplierResponse, error) {
	sup, err := s.supplierRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToSupplierResponse(sup)
	return &response, nil
}

// List returns a page of suppliers
func (s *SupplierService) List(ctx context.Context, tenantID uuid.UUID, filter SupplierListFilter) ([]SupplierListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "name"
	domainFilter.OrderDir = "asc"
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}

	suppliers, total, err := s.supplierRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSupplierListResponses(suppliers), total, nil
}

// UpdateProfile edits a supplier on behalf of procurement
func (s *SupplierService) UpdateProfile(ctx context.Context, tenantID, id uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	sup, err := s.supplierRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && !strings.EqualFold(strings.TrimSpace(*req.Name), sup.Name) {
		exists, err := s.supplierRepo.ExistsOpenByName(ctx, tenantID, *req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A supplier with this name already exists")
		}
	}
	if req.Name != nil || req.Category != nil {
		name, category := sup.Name, ""
		if req.Name != nil {
			name = *req.Name
		}
		if req.Category != nil {
			category = *req.Category
		}
		if err := sup.Rename(name, category); err != nil {
			return nil, err
		}
	}
	if req.ContactEmail != nil {
		if err := sup.SetContactEmail(*req.ContactEmail); err != nil {
			return nil, err
		}
	}
	if err := sup.UpdateProfile(req.Profile()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, sup); err != nil {
		return nil, err
	}
	response := ToSupplierResponse(sup)
	return &response, nil
}

// Suspend blocks an active supplier from new contracts and evaluations
func (s *SupplierService) Suspend(ctx context.Context, tenantID, id uuid.UUID, req SuspendSupplierRequest) (*SupplierResponse, error) {
	sup, err := s.supplierRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := sup.Suspend(req.Reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sup); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Supplier suspended",
		zap.String("supplier_id", sup.ID.String()),
		zap.String("reason", sup.SuspendedReason))
	response := ToSupplierResponse(sup)
	return &response, nil
}

// Reactivate lifts a suspension
func (s *SupplierService) Reactivate(ctx context.Context, tenantID, id uuid.UUID) (*SupplierResponse, error) {
	sup, err := s.supplierRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := sup.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sup); err != nil {
		return nil, err
	}
	response := ToSupplierResponse(sup)
	return &response, nil
}

// DocumentDownloadURL returns a pre-signed GET URL for a document the
// supplier submitted during onboarding
func (s *SupplierService) DocumentDownloadURL(ctx context.Context, tenantID, supplierID, documentID uuid.UUID) (*storage.PresignedURL, error) {
	if _, err := s.supplierRepo.FindByID(ctx, tenantID, supplierID); err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 100
	filter.Filters["supplier_id"] = supplierID
	requests, _, err := s.onboardingRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		// List rows may omit documents, so load the full aggregate
		req, err := s.onboardingRepo.FindByID(ctx, tenantID, requests[i].ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if doc, ok := req.FindDocument(documentID); ok {
			return s.storage.PresignDownload(ctx, doc.StorageKey, doc.FileName)
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Document not found")
}

func (s *SupplierService) save(ctx context.Context, sup *supplier.Supplier) error {
	if err := s.supplierRepo.Save(ctx, sup); err != nil {
		return err
	}
	if err := shared.PublishEvents(ctx, s.eventPublisher, sup); err != nil {
		logger.L(ctx).Warn("Failed to publish supplier events", zap.Error(err))
	}
	return nil
}
