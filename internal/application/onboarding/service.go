// Package onboarding runs the supplier onboarding workflow: initiation,
// manager and procurement approval, the supplier portal and document review.
package onboarding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// UserDirectory resolves the people named on a request
type UserDirectory interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error)
}

// Service handles onboarding requests
type Service struct {
	requestRepo    onboarding.RequestRepository
	supplierRepo   supplier.SupplierRepository
	tx             shared.TxManager
	users          UserDirectory
	storage        storage.ObjectStorage
	eventPublisher shared.EventPublisher
	cfg            config.OnboardingConfig
	currency       string
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new onboarding Service
func NewService(
	requestRepo onboarding.RequestRepository,
	supplierRepo supplier.SupplierRepository,
	tx shared.TxManager,
	users UserDirectory,
	objectStorage storage.ObjectStorage,
	cfg config.OnboardingConfig,
	currency string,
	logger *zap.Logger,
) *Service {
	return &Service{
		requestRepo:  requestRepo,
		supplierRepo: supplierRepo,
		tx:           tx,
		users:        users,
		storage:      objectStorage,
		cfg:          cfg,
		currency:     currency,
		logger:       logger,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher used for notifications
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Initiate creates a pending supplier and an onboarding request waiting for
// the requester's manager
func (s *Service) Initiate(ctx context.Context, p identity.Principal, req InitiateRequest) (*RequestResponse, error) {
	managerID, err := s.resolveManager(ctx, p, req.ManagerID)
	if err != nil {
		return nil, err
	}

	exists, err := s.supplierRepo.ExistsOpenByName(ctx, p.TenantID, req.SupplierName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A supplier with this name is already onboarded or in progress")
	}

	sup, err := supplier.NewSupplier(p.TenantID, req.SupplierName, req.Category, req.ContactName, req.ContactEmail)
	if err != nil {
		return nil, err
	}
	sup.SetCreatedBy(p.UserID)

	number, err := s.requestRepo.GenerateRequestNumber(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	r, err := onboarding.NewRequest(onboarding.NewRequestParams{
		TenantID:             p.TenantID,
		RequestNumber:        number,
		SupplierID:           sup.ID,
		SupplierName:         sup.Name,
		SupplierEmail:        sup.ContactEmail,
		Category:             sup.Category,
		Requester:            actorOf(p),
		ManagerID:            managerID,
		Justification:        req.Justification,
		EstimatedAnnualSpend: req.EstimatedAnnualSpend,
		Currency:             currency,
		RequiredDocuments:    s.cfg.RequiredDocuments,
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.supplierRepo.Save(ctx, sup); err != nil {
			return err
		}
		return s.requestRepo.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, sup)
	s.publish(ctx, r)

	logger.Enrich(ctx, s.logger).Info("Onboarding initiated",
		zap.String("request_id", r.ID.String()),
		zap.String("request_number", r.RequestNumber),
		zap.String("supplier", sup.Name))

	response := ToRequestResponse(r)
	return &response, nil
}

func (s *Service) resolveManager(ctx context.Context, p identity.Principal, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		m, err := s.users.FindByID(ctx, p.TenantID, *explicit)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return uuid.Nil, shared.NewDomainError("INVALID_MANAGER", "Manager not found")
			}
			return uuid.Nil, err
		}
		if !m.IsActive() {
			return uuid.Nil, shared.NewDomainError("INVALID_MANAGER", "Manager is not active")
		}
		return m.ID, nil
	}

	requester, err := s.users.FindByID(ctx, p.TenantID, p.UserID)
	if err != nil {
		return uuid.Nil, err
	}
	if requester.ManagerID == nil {
		return uuid.Nil, shared.NewDomainError("NO_MANAGER", "You have no manager to approve this request")
	}
	return *requester.ManagerID, nil
}

// ManagerDecision records the approving manager's decision. Admins may
// decide on the manager's behalf.
func (s *Service) ManagerDecision(ctx context.Context, p identity.Principal, id uuid.UUID, req DecisionRequest) (*RequestResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		if !r.IsManager(p.UserID) && !p.IsAdmin() {
			return shared.NewDomainError("FORBIDDEN", "Only the assigned manager can decide this request")
		}
		switch req.Decision {
		case DecisionApprove:
			return r.ApproveByManager(actorOf(p), req.Comment)
		case DecisionReject:
			return r.RejectByManager(actorOf(p), req.Comment)
		}
		return shared.NewDomainError("INVALID_DECISION", "Decision must be approve or reject")
	})
}

// ProcurementDecision records procurement's decision. Approval invites the
// supplier to the portal.
func (s *Service) ProcurementDecision(ctx context.Context, p identity.Principal, id uuid.UUID, req DecisionRequest) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		switch req.Decision {
		case DecisionApprove:
			_, err := r.ApproveByProcurement(actorOf(p), req.Comment, s.cfg.InvitationTTL)
			return err
		case DecisionReject:
			return r.RejectByProcurement(actorOf(p), req.Comment)
		}
		return shared.NewDomainError("INVALID_DECISION", "Decision must be approve or reject")
	})
}

// ResendInvitation issues a new portal link; earlier links stop working
func (s *Service) ResendInvitation(ctx context.Context, p identity.Principal, id uuid.UUID) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		_, err := r.ResendInvitation(actorOf(p), s.cfg.InvitationTTL)
		return err
	})
}

// StartReview opens the review of submitted documents
func (s *Service) StartReview(ctx context.Context, p identity.Principal, id uuid.UUID) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		return r.StartReview(actorOf(p))
	})
}

// RequestRevision returns the submission to the supplier
func (s *Service) RequestRevision(ctx context.Context, p identity.Principal, id uuid.UUID, req RevisionRequest) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		_, err := r.RequestRevision(actorOf(p), req.Note, req.DocumentTypes, s.cfg.InvitationTTL)
		return err
	})
}

// Approve completes onboarding and activates the supplier with a new code
func (s *Service) Approve(ctx context.Context, p identity.Principal, id uuid.UUID, req NoteRequest) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		return r.Approve(actorOf(p), req.Note)
	})
}

// Reject ends onboarding after review
func (s *Service) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req ReasonRequest) (*RequestResponse, error) {
	if err := requireProcurement(p); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		return r.Reject(actorOf(p), req.Reason)
	})
}

// Cancel withdraws a request. Only the requester or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, p identity.Principal, id uuid.UUID, req ReasonRequest) (*RequestResponse, error) {
	return s.mutate(ctx, p.TenantID, id, func(r *onboarding.Request) error {
		if !r.IsRequester(p.UserID) && !p.IsAdmin() {
			return shared.NewDomainError("FORBIDDEN", "Only the requester can cancel this request")
		}
		return r.Cancel(actorOf(p), req.Reason)
	})
}

// Get returns a request with its documents and history
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*RequestResponse, error) {
	r, err := s.requestRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToRequestResponse(r)
	return &response, nil
}

// History returns the audit trail of a request
func (s *Service) History(ctx context.Context, tenantID, id uuid.UUID) ([]StepResponse, error) {
	r, err := s.requestRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToStepResponses(r.Steps), nil
}

// List returns a page of requests
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]RequestListResponse, int64, error) {
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
	if filter.RequesterID != nil {
		domainFilter.Filters["requester_id"] = *filter.RequesterID
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.ManagerID != nil {
		domainFilter.Filters["manager_id"] = *filter.ManagerID
	}

	requests, total, err := s.requestRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToRequestListResponses(requests), total, nil
}

// mutate loads a request, applies fn and saves it with optimistic locking.
// The supplier record is synced with the outcome in the same transaction and
// events are published only after it commits.
func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(r *onboarding.Request) error) (*RequestResponse, error) {
	r, err := s.requestRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	before := r.Status
	if err := fn(r); err != nil {
		return nil, err
	}

	var synced *supplier.Supplier
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.SaveWithLock(ctx, r); err != nil {
			return err
		}
		if r.Status == before {
			return nil
		}
		synced, err = s.syncSupplier(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, r)
	if synced != nil {
		s.publish(ctx, synced)
	}

	logger.Enrich(ctx, s.logger).Info("Onboarding request updated",
		zap.String("request_id", r.ID.String()),
		zap.String("from", before.String()),
		zap.String("to", r.Status.String()))

	response := ToRequestResponse(r)
	return &response, nil
}

// syncSupplier activates the supplier on approval and releases its name when
// onboarding ends without one. It returns the supplier it changed, if any.
func (s *Service) syncSupplier(ctx context.Context, r *onboarding.Request) (*supplier.Supplier, error) {
	if r.Status != onboarding.StatusApproved && r.Status != onboarding.StatusRejected && r.Status != onboarding.StatusCancelled {
		return nil, nil
	}
	sup, err := s.supplierRepo.FindByID(ctx, r.TenantID, r.SupplierID)
	if err != nil {
		return nil, err
	}
	if sup.Status != supplier.StatusPending {
		return nil, nil
	}
	if r.Status == onboarding.StatusApproved {
		code, err := s.supplierRepo.GenerateCode(ctx, r.TenantID)
		if err != nil {
			return nil, err
		}
		if err := sup.Activate(code); err != nil {
			return nil, err
		}
	} else if err := sup.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *Service) publish(ctx context.Context, agg shared.AggregateRoot) {
	if err := shared.PublishEvents(ctx, s.eventPublisher, agg); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish onboarding events", zap.Error(err))
	}
}

func actorOf(p identity.Principal) onboarding.Actor {
	return onboarding.UserActor(p.UserID, p.Name)
}

func requireProcurement(p identity.Principal) error {
	if !p.Can(identity.PermProcurementManage) {
		return shared.NewDomainError("FORBIDDEN", "Procurement permission required")
	}
	return nil
}
