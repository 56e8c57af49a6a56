// Package approval applies decisions taken through emailed approval links.
// A link acts as the user it was issued to, through the same services as
// the authenticated API.
package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	onboardingapp "github.com/procurement/backend/internal/application/onboarding"
	requisitionapp "github.com/procurement/backend/internal/application/requisition"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Decisions accepted by ApplyAction
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Error codes returned for unusable links
var (
	ErrActionInvalid = shared.NewDomainError("ACTION_INVALID", "The approval link is not valid")
	ErrActionExpired = shared.NewDomainError("ACTION_EXPIRED", "The approval link has expired")
	ErrActionStale   = shared.NewDomainError("ACTION_STALE", "This item has already moved on and the link no longer applies")
	ErrActionUsed    = shared.NewDomainError("ACTION_USED", "The approval link has already been used")
)

// UserDirectory loads the user a link was issued to
type UserDirectory interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error)
}

// OnboardingDecider decides onboarding approval stages
type OnboardingDecider interface {
	ManagerDecision(ctx context.Context, p identity.Principal, id uuid.UUID, req onboardingapp.DecisionRequest) (*onboardingapp.RequestResponse, error)
	ProcurementDecision(ctx context.Context, p identity.Principal, id uuid.UUID, req onboardingapp.DecisionRequest) (*onboardingapp.RequestResponse, error)
}

// RequisitionDecider decides requisition approval steps
type RequisitionDecider interface {
	Approve(ctx context.Context, p identity.Principal, id uuid.UUID, req requisitionapp.CommentRequest) (*requisitionapp.RequisitionResponse, error)
	Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req requisitionapp.CommentRequest) (*requisitionapp.RequisitionResponse, error)
}

// ApplyRequest is the decision posted to an approval link
type ApplyRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comment  string `json:"comment" binding:"max=2000"`
}

// ActionDescription tells the approver what a link acts on
type ActionDescription struct {
	Kind         string           `json:"kind"`
	Reference    uuid.UUID        `json:"reference"`
	Number       string           `json:"number"`
	Summary      string           `json:"summary"`
	Status       string           `json:"status"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	ApproverName string           `json:"approver_name"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Actionable   bool             `json:"actionable"`
	Reason       string           `json:"reason,omitempty"`
}

// ActionResult reports the outcome of an applied link
type ActionResult struct {
	Kind      string    `json:"kind"`
	Reference uuid.UUID `json:"reference"`
	Number    string    `json:"number"`
	Decision  string    `json:"decision"`
	Status    string    `json:"status"`
}

// Service resolves and applies approval links
type Service struct {
	tokens       *auth.ActionTokenService
	redemptions  shared.RedemptionStore
	users        UserDirectory
	requests     onboarding.RequestRepository
	requisitions requisition.RequisitionRepository
	onboarding   OnboardingDecider
	requisition  RequisitionDecider
	metrics      *telemetry.Metrics
	logger       *zap.Logger
}

// NewService creates a new approval Service
func NewService(
	tokens *auth.ActionTokenService,
	redemptions shared.RedemptionStore,
	users UserDirectory,
	requests onboarding.RequestRepository,
	requisitions requisition.RequisitionRepository,
	onboardingDecider OnboardingDecider,
	requisitionDecider RequisitionDecider,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		tokens:       tokens,
		redemptions:  redemptions,
		users:        users,
		requests:     requests,
		requisitions: requisitions,
		onboarding:   onboardingDecider,
		requisition:  requisitionDecider,
		metrics:      metrics,
		logger:       logger,
	}
}

// subject is the workflow item a link points at
type subject struct {
	number   string
	summary  string
	status   string
	stage    string
	amount   *decimal.Decimal
	currency string
}

// DescribeAction returns what the link would act on without acting
func (s *Service) DescribeAction(ctx context.Context, token string) (*ActionDescription, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	approver, err := s.approver(ctx, claims)
	if err != nil {
		return nil, err
	}
	subj, err := s.load(ctx, claims)
	if err != nil {
		return nil, err
	}

	d := &ActionDescription{
		Kind:         string(claims.Kind),
		Reference:    claims.RefUUID(),
		Number:       subj.number,
		Summary:      subj.summary,
		Status:       subj.status,
		Amount:       subj.amount,
		Currency:     subj.currency,
		ApproverName: approver.Name(),
		Actionable:   true,
	}
	if claims.ExpiresAt != nil {
		d.ExpiresAt = claims.ExpiresAt.Time
	}
	if subj.stage != claims.Stage {
		d.Actionable, d.Reason = false, ErrActionStale.Code
		return d, nil
	}
	used, err := s.redemptions.IsRedeemed(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if used {
		d.Actionable, d.Reason = false, ErrActionUsed.Code
	}
	return d, nil
}

// ApplyAction applies the decision as the user the link was issued to.
// A link is usable once, and only while its item is at the stage the link
// was issued for.
func (s *Service) ApplyAction(ctx context.Context, token string, req ApplyRequest) (*ActionResult, error) {
	claims, err := s.parse(token)
	if err != nil {
		s.metrics.ApprovalAction("unknown", outcomeOf(err))
		return nil, err
	}
	kind := string(claims.Kind)
	ctx = logger.WithActor(ctx, logger.Actor{Kind: "link", ID: claims.Subject})
	ctx = logger.WithTenantID(ctx, claims.TenantID)
	log := logger.Enrich(ctx, s.logger)

	result, err := s.apply(ctx, claims, req)
	s.metrics.ApprovalAction(kind, outcomeOf(err))
	if err != nil {
		log.Info("Approval link not applied",
			zap.String("kind", kind),
			zap.String("ref", claims.Ref),
			zap.Error(err))
		return nil, err
	}
	log.Info("Approval link applied",
		zap.String("kind", kind),
		zap.String("ref", claims.Ref),
		zap.String("decision", req.Decision),
		zap.String("status", result.Status))
	return result, nil
}

func (s *Service) apply(ctx context.Context, claims *auth.ActionClaims, req ApplyRequest) (*ActionResult, error) {
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return nil, shared.NewDomainError("INVALID_DECISION", "Decision must be approve or reject")
	}
	if req.Decision == DecisionReject && strings.TrimSpace(req.Comment) == "" {
		return nil, shared.NewDomainError("COMMENT_REQUIRED", "A comment is required when rejecting")
	}
	approver, err := s.approver(ctx, claims)
	if err != nil {
		return nil, err
	}
	subj, err := s.load(ctx, claims)
	if err != nil {
		return nil, err
	}
	if subj.stage != claims.Stage {
		return nil, ErrActionStale
	}

	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return nil, ErrActionExpired
	}
	fresh, err := s.redemptions.Redeem(ctx, claims.ID, ttl)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, ErrActionUsed
	}

	p := identity.PrincipalOf(approver)
	id := claims.RefUUID()
	status, err := s.decide(ctx, claims, p, id, req)
	if err != nil {
		// a lost race means someone else acted, so the link stays spent
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			if rerr := s.redemptions.Release(ctx, claims.ID); rerr != nil {
				logger.Enrich(ctx, s.logger).Warn("Failed to release approval link",
					zap.String("ref", claims.Ref), zap.Error(rerr))
			}
		}
		return nil, err
	}
	return &ActionResult{
		Kind:      string(claims.Kind),
		Reference: id,
		Number:    subj.number,
		Decision:  req.Decision,
		Status:    status,
	}, nil
}

// decide hands the decision to the owning service and returns the new status
func (s *Service) decide(ctx context.Context, claims *auth.ActionClaims, p identity.Principal, id uuid.UUID, req ApplyRequest) (string, error) {
	switch claims.Kind {
	case auth.ActionOnboardingManager, auth.ActionOnboardingProcurement:
		decide := s.onboarding.ProcurementDecision
		if claims.Kind == auth.ActionOnboardingManager {
			decide = s.onboarding.ManagerDecision
		}
		resp, err := decide(ctx, p, id, onboardingapp.DecisionRequest{Decision: req.Decision, Comment: req.Comment})
		if err != nil {
			return "", err
		}
		return resp.Status, nil
	case auth.ActionRequisitionStep:
		decide := s.requisition.Approve
		if req.Decision == DecisionReject {
			decide = s.requisition.Reject
		}
		resp, err := decide(ctx, p, id, requisitionapp.CommentRequest{Comment: req.Comment})
		if err != nil {
			return "", err
		}
		return resp.Status, nil
	default:
		return "", ErrActionInvalid
	}
}

func (s *Service) parse(token string) (*auth.ActionClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, ErrActionExpired
		}
		return nil, ErrActionInvalid
	}
	return claims, nil
}

func (s *Service) approver(ctx context.Context, claims *auth.ActionClaims) (*identity.User, error) {
	u, err := s.users.FindByID(ctx, claims.TenantUUID(), claims.ApproverUUID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrActionInvalid
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, shared.NewDomainError("FORBIDDEN", "The approver's account is no longer active")
	}
	return u, nil
}

func (s *Service) load(ctx context.Context, claims *auth.ActionClaims) (*subject, error) {
	tenantID, id := claims.TenantUUID(), claims.RefUUID()
	switch claims.Kind {
	case auth.ActionOnboardingManager, auth.ActionOnboardingProcurement:
		r, err := s.requests.FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		spend := r.EstimatedAnnualSpend
		return &subject{
			number:   r.RequestNumber,
			summary:  "Onboard supplier " + r.SupplierName,
			status:   r.Status.String(),
			stage:    OnboardingStage(r),
			amount:   &spend,
			currency: r.Currency,
		}, nil
	case auth.ActionRequisitionStep:
		r, err := s.requisitions.FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		total := r.TotalAmount
		return &subject{
			number:   r.Number,
			summary:  r.Title,
			status:   r.Status.String(),
			stage:    RequisitionStage(r),
			amount:   &total,
			currency: r.Currency,
		}, nil
	}
	return nil, ErrActionInvalid
}

func outcomeOf(err error) string {
	var de *shared.DomainError
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return "conflict"
	case errors.As(err, &de):
		switch de.Code {
		case ErrActionStale.Code:
			return "stale"
		case ErrActionUsed.Code:
			return "used"
		case ErrActionExpired.Code:
			return "expired"
		case ErrActionInvalid.Code:
			return "invalid"
		}
		return "rejected"
	}
	return "error"
}
