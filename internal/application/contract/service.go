// Package contract manages supplier contracts and their time-based sweep.
package contract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// SupplierLookup resolves the contracted supplier
type SupplierLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error)
}

// TenantSource lists the tenants a full sweep covers
type TenantSource interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Service handles contracts
type Service struct {
	repo           contract.ContractRepository
	suppliers      SupplierLookup
	storage        storage.ObjectStorage
	currency       string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new contract Service
func NewService(repo contract.ContractRepository, suppliers SupplierLookup, objectStorage storage.ObjectStorage, currency string, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		storage:   objectStorage,
		currency:  currency,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher used for renewal notices
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft contract with an active supplier
func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateContractRequest) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	sup, err := s.suppliers.FindByID(ctx, p.TenantID, req.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return nil, err
	}
	if !sup.IsActive() {
		return nil, shared.NewDomainError("SUPPLIER_NOT_ACTIVE", "Contracts can only be made with an active supplier")
	}

	number, err := s.repo.GenerateNumber(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	owner := p.UserID
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}
	c, err := contract.NewContract(p.TenantID, number, sup.ID, sup.Name, owner, s.terms(req.TermsRequest))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)

	logger.Enrich(ctx, s.logger).Info("Contract created",
		zap.String("contract_id", c.ID.String()),
		zap.String("number", c.Number),
		zap.String("supplier_id", sup.ID.String()))
	response := ToContractResponse(c, s.now())
	return &response, nil
}

func (s *Service) terms(req TermsRequest) contract.Terms {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	return contract.Terms{
		Title:             req.Title,
		Description:       req.Description,
		Value:             req.Value,
		Currency:          currency,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		AutoRenew:         req.AutoRenew,
		RenewalNoticeDays: req.RenewalNoticeDays,
	}
}

// Update replaces the terms of a draft contract
func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(c *contract.Contract) error {
		return c.UpdateTerms(s.terms(req.TermsRequest))
	})
}

// Activate puts a draft contract into force
func (s *Service) Activate(ctx context.Context, p identity.Principal, id uuid.UUID) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(c *contract.Contract) error {
		return c.Activate()
	})
}

// Terminate ends an active contract
func (s *Service) Terminate(ctx context.Context, p identity.Principal, id uuid.UUID, req TerminateRequest) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(c *contract.Contract) error {
		return c.Terminate(req.Reason)
	})
}

// Renew extends an active or expired contract
func (s *Service) Renew(ctx context.Context, p identity.Principal, id uuid.UUID, req RenewRequest) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(c *contract.Contract) error {
		return c.Renew(req.EndDate, req.Value)
	})
}

// DocumentUploadURL returns a pre-signed PUT URL under the contract's prefix
func (s *Service) DocumentUploadURL(ctx context.Context, p identity.Principal, id uuid.UUID, req DocumentUploadRequest) (*DocumentUploadResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == contract.StatusTerminated {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot attach a document to a terminated contract")
	}
	key := contract.DocumentPrefix(c.TenantID, c.ID) + uuid.NewString() + "-" + storage.SafeFileName(req.FileName)
	upload, err := s.storage.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, err
	}
	return &DocumentUploadResponse{StorageKey: key, Upload: upload}, nil
}

// AttachDocument links an uploaded file to the contract
func (s *Service) AttachDocument(ctx context.Context, p identity.Principal, id uuid.UUID, req AttachDocumentRequest) (*ContractResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	if _, ok, err := s.storage.Stat(ctx, req.StorageKey); err != nil {
		return nil, err
	} else if !ok {
		return nil, shared.NewDomainError("DOCUMENT_NOT_UPLOADED", "The document has not been uploaded")
	}
	return s.mutate(ctx, p.TenantID, id, func(c *contract.Contract) error {
		return c.AttachDocument(req.StorageKey)
	})
}

// DocumentDownloadURL returns a pre-signed GET URL for the attached file
func (s *Service) DocumentDownloadURL(ctx context.Context, tenantID, id uuid.UUID) (*storage.PresignedURL, error) {
	c, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c.DocumentKey == "" {
		return nil, shared.ErrNotFound
	}
	return s.storage.PresignDownload(ctx, c.DocumentKey, c.Number+"-"+storage.SafeFileName(c.DocumentKey))
}

// Get returns a contract
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*ContractResponse, error) {
	c, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(c, s.now())
	return &response, nil
}

// List returns a page of contracts
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ContractResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = strings.ToUpper(filter.Status)
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.ExpiringWithin > 0 {
		domainFilter.Filters["expiring_within"] = filter.ExpiringWithin
		if filter.OrderBy == "" {
			domainFilter.OrderBy, domainFilter.OrderDir = "end_date", "asc"
		}
	}

	contracts, total, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToContractResponses(contracts, s.now()), total, nil
}

// Sweep renews, expires and flags for renewal notice every active contract
// of the tenant. A contract modified concurrently is left for the next run.
func (s *Service) Sweep(ctx context.Context, tenantID uuid.UUID, now time.Time) (SweepResult, error) {
	var result SweepResult
	log := logger.Enrich(ctx, s.logger)

	active, err := s.repo.FindActive(ctx, tenantID)
	if err != nil {
		return result, err
	}
	for i := range active {
		c := &active[i]
		result.Checked++
		outcome := c.Sweep(now)
		if outcome == contract.SweepNone {
			continue
		}
		if err := s.repo.SaveWithLock(ctx, c); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				result.Conflicts++
				log.Warn("Contract changed during sweep, skipping", zap.String("contract_id", c.ID.String()))
				continue
			}
			return result, err
		}
		s.publish(ctx, c)

		switch outcome {
		case contract.SweepRenewed:
			result.Renewed++
		case contract.SweepExpired:
			result.Expired++
		case contract.SweepRenewalNotice:
			result.Notices++
		}
		log.Info("Contract swept",
			zap.String("contract_id", c.ID.String()),
			zap.String("number", c.Number),
			zap.String("outcome", string(outcome)))
	}
	return result, nil
}

// SweepAll runs Sweep for every active tenant. A failing tenant is logged and
// the remaining tenants are still swept.
func (s *Service) SweepAll(ctx context.Context, tenants TenantSource, now time.Time) (SweepResult, error) {
	var total SweepResult
	ids, err := tenants.ActiveTenantIDs(ctx)
	if err != nil {
		return total, err
	}
	var errs []error
	for _, tenantID := range ids {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		tctx := logger.WithTenantID(ctx, tenantID.String())
		result, err := s.Sweep(tctx, tenantID, now)
		total.Add(result)
		if err != nil {
			logger.Enrich(tctx, s.logger).Error("Contract sweep failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(c *contract.Contract) error) (*ContractResponse, error) {
	c, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)
	response := ToContractResponse(c, s.now())
	return &response, nil
}

func (s *Service) publish(ctx context.Context, c *contract.Contract) {
	if err := shared.PublishEvents(ctx, s.eventPublisher, c); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish contract events", zap.Error(err))
	}
}

func requireProcurement(p identity.Principal) error {
	if !p.Can(identity.PermProcurementManage) {
		return shared.NewDomainError("FORBIDDEN", "Procurement permission required")
	}
	return nil
}
