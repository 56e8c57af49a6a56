package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/evaluation"
	"github.com/procurement/backend/internal/application/supplier"
)

// SupplierHandler handles the supplier master
type SupplierHandler struct {
	BaseHandler
	supplierService   *supplier.SupplierService
	evaluationService *evaluation.Service
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(supplierService *supplier.SupplierService, evaluationService *evaluation.Service) *SupplierHandler {
	return &SupplierHandler{
		supplierService:   supplierService,
		evaluationService: evaluationService,
	}
}

// List returns a page of suppliers
// GET /suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter supplier.SupplierListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.supplierService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one supplier
// GET /suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sup, err := h.supplierService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

// Update edits the supplier profile
// PUT /suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req supplier.UpdateSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sup, err := h.supplierService.UpdateProfile(c.Request.Context(), p.TenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

// Suspend blocks an active supplier
// POST /suppliers/:id/suspend
func (h *SupplierHandler) Suspend(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req supplier.SuspendSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sup, err := h.supplierService.Suspend(c.Request.Context(), p.TenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

// Reactivate lifts a suspension
// POST /suppliers/:id/reactivate
func (h *SupplierHandler) Reactivate(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sup, err := h.supplierService.Reactivate(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

// Scorecard aggregates the supplier's evaluations
// GET /suppliers/:id/scorecard
func (h *SupplierHandler) Scorecard(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	card, err := h.evaluationService.Scorecard(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}

// DocumentDownloadURL presigns a download of an onboarding document
// GET /suppliers/:id/documents/:doc_id/download-url
func (h *SupplierHandler) DocumentDownloadURL(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	docID, ok := h.pathUUID(c, "doc_id")
	if !ok {
		return
	}
	url, err := h.supplierService.DocumentDownloadURL(c.Request.Context(), p.TenantID, id, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}
