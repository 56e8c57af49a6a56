package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/evaluation"
)

// EvaluationHandler handles supplier evaluations
type EvaluationHandler struct {
	BaseHandler
	evaluationService *evaluation.Service
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluationService *evaluation.Service) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// Create rates a supplier for a period
// POST /evaluations
func (h *EvaluationHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req evaluation.CreateEvaluationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.evaluationService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of evaluations
// GET /evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter evaluation.ListFilter
	if !h.bindQuery(c, &filter) ||
		!h.optionalUUID(c, "supplier_id", &filter.SupplierID) ||
		!h.optionalUUID(c, "evaluator_id", &filter.EvaluatorID) {
		return
	}
	items, total, err := h.evaluationService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one evaluation
// GET /evaluations/:id
func (h *EvaluationHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.evaluationService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update changes the scores or comments
// PUT /evaluations/:id
func (h *EvaluationHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req evaluation.UpdateEvaluationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.evaluationService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
