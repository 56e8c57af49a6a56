package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/onboarding"
	"github.com/procurement/backend/internal/domain/identity"
)

// OnboardingHandler drives the supplier onboarding workflow for staff
type OnboardingHandler struct {
	BaseHandler
	onboardingService *onboarding.Service
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboardingService *onboarding.Service) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// Initiate opens an onboarding request
// POST /onboarding
func (h *OnboardingHandler) Initiate(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req onboarding.InitiateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.onboardingService.Initiate(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of onboarding requests
// GET /onboarding
func (h *OnboardingHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter onboarding.ListFilter
	if !h.bindQuery(c, &filter) ||
		!h.optionalUUID(c, "requester_id", &filter.RequesterID) ||
		!h.optionalUUID(c, "supplier_id", &filter.SupplierID) ||
		!h.optionalUUID(c, "manager_id", &filter.ManagerID) {
		return
	}
	items, total, err := h.onboardingService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one onboarding request
// GET /onboarding/:id
func (h *OnboardingHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.onboardingService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// History returns the audit trail of a request
// GET /onboarding/:id/history
func (h *OnboardingHandler) History(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	steps, err := h.onboardingService.History(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, steps)
}

// ManagerDecision records the requester's manager approving or rejecting
// POST /onboarding/:id/manager-decision
func (h *OnboardingHandler) ManagerDecision(c *gin.Context) {
	var req onboarding.DecisionRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.ManagerDecision(ctx, p, id, req)
	})
}

// ProcurementDecision records procurement approving or rejecting
// POST /onboarding/:id/procurement-decision
func (h *OnboardingHandler) ProcurementDecision(c *gin.Context) {
	var req onboarding.DecisionRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.ProcurementDecision(ctx, p, id, req)
	})
}

// ResendInvitation issues a fresh portal link to the supplier
// POST /onboarding/:id/resend-invitation
func (h *OnboardingHandler) ResendInvitation(c *gin.Context) {
	h.transition(c, nil, h.onboardingService.ResendInvitation)
}

// StartReview claims submitted documents for review
// POST /onboarding/:id/start-review
func (h *OnboardingHandler) StartReview(c *gin.Context) {
	h.transition(c, nil, h.onboardingService.StartReview)
}

// RequestRevision sends the supplier back to the portal
// POST /onboarding/:id/request-revision
func (h *OnboardingHandler) RequestRevision(c *gin.Context) {
	var req onboarding.RevisionRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.RequestRevision(ctx, p, id, req)
	})
}

// Approve completes onboarding and activates the supplier
// POST /onboarding/:id/approve
func (h *OnboardingHandler) Approve(c *gin.Context) {
	var req onboarding.NoteRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.Approve(ctx, p, id, req)
	})
}

// Reject ends onboarding after review
// POST /onboarding/:id/reject
func (h *OnboardingHandler) Reject(c *gin.Context) {
	var req onboarding.ReasonRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.Reject(ctx, p, id, req)
	})
}

// Cancel withdraws an open request
// POST /onboarding/:id/cancel
func (h *OnboardingHandler) Cancel(c *gin.Context) {
	var req onboarding.ReasonRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*onboarding.RequestResponse, error) {
		return h.onboardingService.Cancel(ctx, p, id, req)
	})
}

// transition runs one state change. A nil body skips JSON binding.
func (h *OnboardingHandler) transition(c *gin.Context, body any, fn func(context.Context, identity.Principal, uuid.UUID) (*onboarding.RequestResponse, error)) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if body != nil && !h.bindJSON(c, body) {
		return
	}
	resp, err := fn(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
