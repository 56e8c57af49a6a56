package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/contract"
	"github.com/procurement/backend/internal/domain/identity"
)

// ContractHandler handles supplier contracts
type ContractHandler struct {
	BaseHandler
	contractService *contract.Service
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *contract.Service) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// Create drafts a contract
// POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req contract.CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.contractService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a page of contracts
// GET /contracts
func (h *ContractHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter contract.ListFilter
	if !h.bindQuery(c, &filter) || !h.optionalUUID(c, "supplier_id", &filter.SupplierID) {
		return
	}
	items, total, err := h.contractService.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get returns one contract
// GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.contractService.Get(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update replaces the terms of a draft
// PUT /contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	var req contract.UpdateContractRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*contract.ContractResponse, error) {
		return h.contractService.Update(ctx, p, id, req)
	})
}

// Activate puts a draft into force
// POST /contracts/:id/activate
func (h *ContractHandler) Activate(c *gin.Context) {
	h.transition(c, nil, h.contractService.Activate)
}

// Terminate ends an active contract early
// POST /contracts/:id/terminate
func (h *ContractHandler) Terminate(c *gin.Context) {
	var req contract.TerminateRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*contract.ContractResponse, error) {
		return h.contractService.Terminate(ctx, p, id, req)
	})
}

// Renew extends a contract
// POST /contracts/:id/renew
func (h *ContractHandler) Renew(c *gin.Context) {
	var req contract.RenewRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*contract.ContractResponse, error) {
		return h.contractService.Renew(ctx, p, id, req)
	})
}

// AttachDocument links an uploaded file to the contract
// POST /contracts/:id/document
func (h *ContractHandler) AttachDocument(c *gin.Context) {
	var req contract.AttachDocumentRequest
	h.transition(c, &req, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*contract.ContractResponse, error) {
		return h.contractService.AttachDocument(ctx, p, id, req)
	})
}

// DocumentUploadURL presigns an upload of the contract document
// POST /contracts/:id/document-upload-url
func (h *ContractHandler) DocumentUploadURL(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req contract.DocumentUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.contractService.DocumentUploadURL(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DocumentDownloadURL presigns a download of the attached document
// GET /contracts/:id/document/download-url
func (h *ContractHandler) DocumentDownloadURL(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	url, err := h.contractService.DocumentDownloadURL(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}

func (h *ContractHandler) transition(c *gin.Context, body any, fn func(context.Context, identity.Principal, uuid.UUID) (*contract.ContractResponse, error)) {
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
