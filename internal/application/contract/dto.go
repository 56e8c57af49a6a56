package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
)

// TermsRequest holds the editable terms of a contract
type TermsRequest struct {
	Title             string          `json:"title" binding:"required,max=200"`
	Description       string          `json:"description" binding:"max=4000"`
	Value             decimal.Decimal `json:"value"`
	Currency          string          `json:"currency" binding:"omitempty,currency"`
	StartDate         time.Time       `json:"start_date" binding:"required"`
	EndDate           time.Time       `json:"end_date" binding:"required"`
	AutoRenew         bool            `json:"auto_renew"`
	RenewalNoticeDays int             `json:"renewal_notice_days" binding:"omitempty,min=0,max=365"`
}

// CreateContractRequest creates a draft contract
type CreateContractRequest struct {
	TermsRequest
	SupplierID uuid.UUID  `json:"supplier_id" binding:"required"`
	OwnerID    *uuid.UUID `json:"owner_id"`
}

// UpdateContractRequest replaces the terms of a draft
type UpdateContractRequest struct {
	TermsRequest
}

// TerminateRequest ends an active contract
type TerminateRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// RenewRequest extends a contract
type RenewRequest struct {
	EndDate time.Time        `json:"end_date" binding:"required"`
	Value   *decimal.Decimal `json:"value"`
}

// DocumentUploadRequest asks for a pre-signed upload URL
type DocumentUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// DocumentUploadResponse carries the key to attach after uploading
type DocumentUploadResponse struct {
	StorageKey string                `json:"storage_key"`
	Upload     *storage.PresignedURL `json:"upload"`
}

// AttachDocumentRequest links an uploaded file
type AttachDocumentRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
}

// ListFilter represents filter options for the contract list
type ListFilter struct {
	Search         string     `form:"search"`
	Status         string     `form:"status"`
	SupplierID     *uuid.UUID `form:"-"` // query supplier_id, parsed by the handler
	ExpiringWithin int        `form:"expiring_within" binding:"omitempty,min=1,max=3650"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ContractResponse is the API view of a contract
type ContractResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Number              string          `json:"number"`
	SupplierID          uuid.UUID       `json:"supplier_id"`
	SupplierName        string          `json:"supplier_name"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	Value               decimal.Decimal `json:"value"`
	Currency            string          `json:"currency"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	AutoRenew           bool            `json:"auto_renew"`
	RenewalNoticeDays   int             `json:"renewal_notice_days"`
	OwnerID             uuid.UUID       `json:"owner_id"`
	Status              string          `json:"status"`
	HasDocument         bool            `json:"has_document"`
	DaysUntilEnd        int             `json:"days_until_end"`
	RenewalNoticeSentAt *time.Time      `json:"renewal_notice_sent_at,omitempty"`
	ActivatedAt         *time.Time      `json:"activated_at,omitempty"`
	TerminatedAt        *time.Time      `json:"terminated_at,omitempty"`
	TerminationReason   string          `json:"termination_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// SweepResult counts what a sweep changed
type SweepResult struct {
	Checked   int `json:"checked"`
	Renewed   int `json:"renewed"`
	Expired   int `json:"expired"`
	Notices   int `json:"renewal_notices"`
	Conflicts int `json:"conflicts"`
}

// Add accumulates another tenant's result
func (r *SweepResult) Add(o SweepResult) {
	r.Checked += o.Checked
	r.Renewed += o.Renewed
	r.Expired += o.Expired
	r.Notices += o.Notices
	r.Conflicts += o.Conflicts
}

// ToContractResponse converts a domain contract to its API view
func ToContractResponse(c *contract.Contract, now time.Time) ContractResponse {
	resp := ContractResponse{
		ID:                  c.ID,
		Number:              c.Number,
		SupplierID:          c.SupplierID,
		SupplierName:        c.SupplierName,
		Title:               c.Title,
		Description:         c.Description,
		Value:               c.Value,
		Currency:            c.Currency,
		StartDate:           c.StartDate,
		EndDate:             c.EndDate,
		AutoRenew:           c.AutoRenew,
		RenewalNoticeDays:   c.RenewalNoticeDays,
		OwnerID:             c.OwnerID,
		Status:              c.Status.String(),
		HasDocument:         c.DocumentKey != "",
		RenewalNoticeSentAt: c.RenewalNoticeSentAt,
		ActivatedAt:         c.ActivatedAt,
		TerminatedAt:        c.TerminatedAt,
		TerminationReason:   c.TerminationReason,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		Version:             c.Version,
	}
	if c.Status == contract.StatusActive {
		resp.DaysUntilEnd = c.DaysUntilEnd(now)
	}
	return resp
}

// ToContractResponses converts contracts to API views
func ToContractResponses(contracts []contract.Contract, now time.Time) []ContractResponse {
	out := make([]ContractResponse, len(contracts))
	for i := range contracts {
		out[i] = ToContractResponse(&contracts[i], now)
	}
	return out
}
