package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/application/approval"
)

// ApprovalHandler resolves the signed approve/reject links sent by email
type ApprovalHandler struct {
	BaseHandler
	approvalService *approval.Service
}

// NewApprovalHandler creates a new approval link handler
func NewApprovalHandler(approvalService *approval.Service) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Describe tells the approver what the link acts on without applying it
// GET /approvals/:token
func (h *ApprovalHandler) Describe(c *gin.Context) {
	desc, err := h.approvalService.DescribeAction(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, desc)
}

// Apply records the approver's decision
// POST /approvals/:token
func (h *ApprovalHandler) Apply(c *gin.Context) {
	var req approval.ApplyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.approvalService.ApplyAction(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
