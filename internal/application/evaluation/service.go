// Package evaluation records periodic supplier ratings and builds scorecards.
package evaluation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/evaluation"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SupplierLookup resolves the evaluated supplier
type SupplierLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error)
}

// Service handles supplier evaluations
type Service struct {
	repo           evaluation.EvaluationRepository
	suppliers      SupplierLookup
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new evaluation Service
func NewService(repo evaluation.EvaluationRepository, suppliers SupplierLookup, logger *zap.Logger) *Service {
	return &Service{repo: repo, suppliers: suppliers, logger: logger}
}

// SetEventPublisher sets the event publisher used for dashboard invalidation
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create rates an active supplier. Each evaluator rates a supplier at most
// once per period.
func (s *Service) Create(ctx context.Context, p identity.Principal, req CreateEvaluationRequest) (*EvaluationResponse, error) {
	sup, err := s.suppliers.FindByID(ctx, p.TenantID, req.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return nil, err
	}
	if !sup.IsActive() {
		return nil, shared.NewDomainError("SUPPLIER_NOT_ACTIVE", "Only active suppliers can be evaluated")
	}

	e, err := evaluation.NewEvaluation(p.TenantID, sup.ID, sup.Name, p.UserID, req.Period, req.Scores.toScores(), req.Comments)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, p.TenantID, sup.ID, p.UserID, e.Period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "You have already evaluated this supplier for "+e.Period)
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, e)

	logger.Enrich(ctx, s.logger).Info("Supplier evaluated",
		zap.String("supplier_id", sup.ID.String()),
		zap.String("period", e.Period),
		zap.String("overall", e.OverallScore.String()))
	response := ToEvaluationResponse(e)
	return &response, nil
}

// Update revises an evaluation. Only its evaluator or an admin may do so.
func (s *Service) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateEvaluationRequest) (*EvaluationResponse, error) {
	e, err := s.repo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if e.EvaluatorID != p.UserID && !p.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the evaluator can revise this evaluation")
	}
	if err := e.Revise(req.Scores.toScores(), req.Comments); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, e)
	response := ToEvaluationResponse(e)
	return &response, nil
}

// Get returns an evaluation
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*EvaluationResponse, error) {
	e, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToEvaluationResponse(e)
	return &response, nil
}

// List returns a page of evaluations, most recent first
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]EvaluationResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.EvaluatorID != nil {
		domainFilter.Filters["evaluator_id"] = *filter.EvaluatorID
	}
	if period := strings.ToUpper(strings.TrimSpace(filter.Period)); period != "" {
		if err := evaluation.ValidatePeriod(period); err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["period"] = period
	}

	evals, total, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToEvaluationResponses(evals), total, nil
}

// Scorecard aggregates every evaluation of a supplier
func (s *Service) Scorecard(ctx context.Context, tenantID, supplierID uuid.UUID) (*ScorecardResponse, error) {
	sup, err := s.suppliers.FindByID(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	sc, err := s.repo.Scorecard(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	response := ToScorecardResponse(sc, sup.Name)
	return &response, nil
}

func (s *Service) publish(ctx context.Context, e *evaluation.Evaluation) {
	if err := shared.PublishEvents(ctx, s.eventPublisher, e); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish evaluation events", zap.Error(err))
	}
}
