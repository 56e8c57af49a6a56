// Package requisition runs purchase requisitions through their approval
// chain: manager, then procurement and finance above configured thresholds.
package requisition

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UserDirectory resolves requesters and their managers
type UserDirectory interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error)
}

// SupplierLookup resolves the preferred supplier of a requisition
type SupplierLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error)
}

// ContractLookup resolves the contract a requisition draws on
type ContractLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error)
}

// Service handles requisitions
type Service struct {
	repo           requisition.RequisitionRepository
	users          UserDirectory
	suppliers      SupplierLookup
	contracts      ContractLookup
	policy         requisition.ApprovalPolicy
	currency       string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new requisition Service
func NewService(
	repo requisition.RequisitionRepository,
	users UserDirectory,
	suppliers SupplierLookup,
	contracts ContractLookup,
	policy requisition.ApprovalPolicy,
	currency string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		suppliers: suppliers,
		contracts: contracts,
		policy:    policy,
		currency:  currency,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher used for notifications and spend
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// DeciderOf maps a principal onto the approver pools its role belongs to
func DeciderOf(p identity.Principal) requisition.Decider {
	d := requisition.Decider{ID: p.UserID, Name: p.Name}
	switch p.Role {
	case identity.RoleProcurement:
		d.Pools = []requisition.ApproverRole{requisition.ApproverProcurement}
	case identity.RoleFinance:
		d.Pools = []requisition.ApproverRole{requisition.ApproverFinance}
	case identity.RoleAdmin:
		d.Admin = true
	}
	return d
}

// Create creates a draft requisition for the principal
func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateRequisitionRequest) (*RequisitionResponse, error) {
	number, err := s.repo.GenerateNumber(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	r, err := requisition.NewRequisition(p.TenantID, number, p.UserID, p.Name, req.Title, currency)
	if err != nil {
		return nil, err
	}
	if err := r.UpdateDetails(req.Title, req.Justification, req.Department, req.NeededBy); err != nil {
		return nil, err
	}
	if err := s.applySupplier(ctx, r, req.SupplierID, req.ContractID); err != nil {
		return nil, err
	}
	if err := r.SetLines(toLineInputs(req.Lines)); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r)

	response := ToRequisitionResponse(r)
	return &response, nil
}

// Update edits a draft. Only the requester may edit.
func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateRequisitionRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		if !r.IsRequester(p.UserID) {
			return shared.NewDomainError("FORBIDDEN", "Only the requester can edit this requisition")
		}
		if err := r.UpdateDetails(req.Title, req.Justification, req.Department, req.NeededBy); err != nil {
			return err
		}
		if err := s.applySupplier(ctx, r, req.SupplierID, req.ContractID); err != nil {
			return err
		}
		if len(req.Lines) > 0 {
			return r.SetLines(toLineInputs(req.Lines))
		}
		return nil
	})
}

// applySupplier links the supplier and contract after checking both
func (s *Service) applySupplier(ctx context.Context, r *requisition.Requisition, supplierID, contractID *uuid.UUID) error {
	if supplierID == nil {
		return r.SetSupplier(nil, "", contractID)
	}
	sup, err := s.suppliers.FindByID(ctx, r.TenantID, *supplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return err
	}
	if !sup.IsActive() {
		return shared.NewDomainError("SUPPLIER_NOT_ACTIVE", "Requisitions can only name an active supplier")
	}
	if contractID != nil {
		c, err := s.contracts.FindByID(ctx, r.TenantID, *contractID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CONTRACT", "Contract not found")
			}
			return err
		}
		if c.SupplierID != sup.ID {
			return shared.NewDomainError("INVALID_CONTRACT", "Contract belongs to a different supplier")
		}
		if c.Status != contract.StatusActive {
			return shared.NewDomainError("INVALID_CONTRACT", "Contract is not active")
		}
	}
	return r.SetSupplier(&sup.ID, sup.Name, contractID)
}

// Submit builds the approval chain from the policy and activates the first step
func (s *Service) Submit(ctx context.Context, p identity.Principal, id uuid.UUID) (*RequisitionResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		if !r.IsRequester(p.UserID) {
			return shared.NewDomainError("FORBIDDEN", "Only the requester can submit this requisition")
		}
		requester, err := s.users.FindByID(ctx, p.TenantID, r.RequesterID)
		if err != nil {
			return err
		}
		return r.Submit(s.policy, requester.ManagerID)
	})
}

// Approve approves the current step on behalf of the principal
func (s *Service) Approve(ctx context.Context, p identity.Principal, id uuid.UUID, req CommentRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		return r.Approve(DeciderOf(p), req.Comment)
	})
}

// Reject rejects the current step and closes the requisition
func (s *Service) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req CommentRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		return r.Reject(DeciderOf(p), req.Comment)
	})
}

// Cancel withdraws a draft or pending requisition. Requester or admin only.
func (s *Service) Cancel(ctx context.Context, p identity.Principal, id uuid.UUID, req CommentRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		if !r.IsRequester(p.UserID) && !p.IsAdmin() {
			return shared.NewDomainError("FORBIDDEN", "Only the requester can cancel this requisition")
		}
		return r.Cancel(req.Comment)
	})
}

// MarkOrdered records the purchase order placed for an approved requisition
func (s *Service) MarkOrdered(ctx context.Context, p identity.Principal, id uuid.UUID, req OrderRequest) (*RequisitionResponse, error) {
	if !p.Can(identity.PermProcurementManage) {
		return nil, shared.NewDomainError("FORBIDDEN", "Procurement permission required")
	}
	return s.mutate(ctx, p.TenantID, id, func(r *requisition.Requisition) error {
		return r.MarkOrdered(req.PONumber)
	})
}

// Get returns a requisition
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*RequisitionResponse, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToRequisitionResponse(r)
	return &response, nil
}

// List returns a page of requisitions. With PendingForMe only requisitions
// whose current step the principal can decide are returned.
func (s *Service) List(ctx context.Context, p identity.Principal, filter ListFilter) ([]RequisitionListResponse, int64, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if filter.PendingForMe {
		pending, err := s.pendingFor(ctx, p)
		if err != nil {
			return nil, 0, err
		}
		total := int64(len(pending))
		start := (page - 1) * pageSize
		if start > len(pending) {
			start = len(pending)
		}
		end := start + pageSize
		if end > len(pending) {
			end = len(pending)
		}
		return ToRequisitionListResponses(pending[start:end]), total, nil
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.Page = page
	domainFilter.PageSize = pageSize
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
	if filter.RequesterID != nil {
		domainFilter.Filters["requester_id"] = *filter.RequesterID
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}

	reqs, total, err := s.repo.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToRequisitionListResponses(reqs), total, nil
}

// PendingApprovals returns the requisitions the principal can decide now,
// oldest submission first
func (s *Service) PendingApprovals(ctx context.Context, p identity.Principal) ([]RequisitionListResponse, error) {
	pending, err := s.pendingFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return ToRequisitionListResponses(pending), nil
}

func (s *Service) pendingFor(ctx context.Context, p identity.Principal) ([]requisition.Requisition, error) {
	all, err := s.repo.FindPendingApproval(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	d := DeciderOf(p)
	out := make([]requisition.Requisition, 0, len(all))
	for i := range all {
		if all[i].CanDecide(d) == nil {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		if a == nil || b == nil {
			return b != nil
		}
		return a.Before(*b)
	})
	return out, nil
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(r *requisition.Requisition) error) (*RequisitionResponse, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	before := r.Status
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, r)

	if r.Status != before {
		logger.Enrich(ctx, s.logger).Info("Requisition status changed",
			zap.String("requisition_id", r.ID.String()),
			zap.String("number", r.Number),
			zap.String("from", before.String()),
			zap.String("to", r.Status.String()))
	}
	response := ToRequisitionResponse(r)
	return &response, nil
}

func (s *Service) publish(ctx context.Context, r *requisition.Requisition) {
	if err := shared.PublishEvents(ctx, s.eventPublisher, r); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish requisition events", zap.Error(err))
	}
}
