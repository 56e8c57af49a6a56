package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/requisition"
	"github.com/procurement/backend/internal/domain/identity"
)

// RequisitionHandler handles purchase requisitions and their approval chain
type RequisitionHandler struct {
	BaseHandler
	requisitionService *requisition.Service
}

// NewRequisitionHandler creates a new requisition handler
func NewRequisitionHandler(requisitionService *requisition.Service) *RequisitionHandler {
	return &RequisitionHandler{requisitionService: requisitionService}
}

// Create drafts a requisition
// POST /requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req requisition.CreateRequisitionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.requisitionService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns the requisitions visible to the caller
// GET /requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter requisition.ListFilter
	if !h.bindQuery(c, &filter) ||
		!h.optionalUUID(c, "requester_id", &filter.RequesterID) ||
		!h.optionalUUID(c, "supplier_id", &filter.SupplierID) {
		return
	}
	items, total, err := h.requisitionService.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// PendingApprovals lists the requisitions waiting on the caller
// GET /requisitions/pending-approvals
func (h *RequisitionHandler) PendingApprovals(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	items, err := h.requisitionService.PendingApprovals(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get returns one requisition
// GET /requisitions/:id
func (h *RequisitionHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.requisitionService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update edits a draft
// PUT /requisitions/:id
func (h *RequisitionHandler) Update(c *gin.Context) {
	var req requisition.UpdateRequisitionRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*requisition.RequisitionResponse, error) {
		return h.requisitionService.Update(ctx, p, id, req)
	})
}

// Submit builds the approval chain and notifies the first approver
// POST /requisitions/:id/submit
func (h *RequisitionHandler) Submit(c *gin.Context) {
	h.transition(c, nil, h.requisitionService.Submit)
}

// Approve approves the current step
// POST /requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	var req requisition.CommentRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*requisition.RequisitionResponse, error) {
		return h.requisitionService.Approve(ctx, p, id, req)
	})
}

// Reject rejects the current step
// POST /requisitions/:id/reject
func (h *RequisitionHandler) Reject(c *gin.Context) {
	var req requisition.CommentRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*requisition.RequisitionResponse, error) {
		return h.requisitionService.Reject(ctx, p, id, req)
	})
}

// Cancel withdraws a draft or pending requisition
// POST /requisitions/:id/cancel
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	var req requisition.CommentRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*requisition.RequisitionResponse, error) {
		return h.requisitionService.Cancel(ctx, p, id, req)
	})
}

// Order records the purchase order for an approved requisition
// POST /requisitions/:id/order
func (h *RequisitionHandler) Order(c *gin.Context) {
	var req requisition.OrderRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*requisition.RequisitionResponse, error) {
		return h.requisitionService.MarkOrdered(ctx, p, id, req)
	})
}

func (h *RequisitionHandler) transition(c *gin.Context, body any, fn func(context.Context, identity.Principal, uuid.UUID) (*requisition.RequisitionResponse, error)) {
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
