package requisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/shopspring/decimal"
)

// LineRequest is one requisition line
type LineRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Category    string          `json:"category" binding:"max=100"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateRequisitionRequest creates a draft requisition
type CreateRequisitionRequest struct {
	Title         string        `json:"title" binding:"required,max=200"`
	Justification string        `json:"justification" binding:"max=2000"`
	Department    string        `json:"department" binding:"max=100"`
	NeededBy      *time.Time    `json:"needed_by"`
	Currency      string        `json:"currency" binding:"omitempty,currency"`
	SupplierID    *uuid.UUID    `json:"supplier_id"`
	ContractID    *uuid.UUID    `json:"contract_id"`
	Lines         []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateRequisitionRequest replaces the editable fields of a draft
type UpdateRequisitionRequest struct {
	Title         string        `json:"title" binding:"max=200"`
	Justification string        `json:"justification" binding:"max=2000"`
	Department    string        `json:"department" binding:"max=100"`
	NeededBy      *time.Time    `json:"needed_by"`
	SupplierID    *uuid.UUID    `json:"supplier_id"`
	ContractID    *uuid.UUID    `json:"contract_id"`
	Lines         []LineRequest `json:"lines" binding:"omitempty,dive"`
}

// CommentRequest carries a decision comment
type CommentRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

// OrderRequest records the purchase order number
type OrderRequest struct {
	PONumber string `json:"po_number" binding:"required,max=100"`
}

// ListFilter represents filter options for the requisition list
type ListFilter struct {
	Search       string     `form:"search"`
	Status       string     `form:"status"`
	RequesterID  *uuid.UUID `form:"-"` // query requester_id, parsed by the handler
	SupplierID   *uuid.UUID `form:"-"` // query supplier_id, parsed by the handler
	PendingForMe bool       `form:"pending_for_me"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineResponse is the API view of a requisition line
type LineResponse struct {
	LineNo      int             `json:"line_no"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// StepResponse is the API view of an approval step
type StepResponse struct {
	Sequence    int        `json:"sequence"`
	Role        string     `json:"role"`
	ApproverID  *uuid.UUID `json:"approver_id,omitempty"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DeciderID   *uuid.UUID `json:"decider_id,omitempty"`
	DeciderName string     `json:"decider_name,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

// RequisitionResponse is the API view of a requisition
type RequisitionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	RequesterID     uuid.UUID       `json:"requester_id"`
	RequesterName   string          `json:"requester_name"`
	Department      string          `json:"department,omitempty"`
	Title           string          `json:"title"`
	Justification   string          `json:"justification,omitempty"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName    string          `json:"supplier_name,omitempty"`
	ContractID      *uuid.UUID      `json:"contract_id,omitempty"`
	NeededBy        *time.Time      `json:"needed_by,omitempty"`
	Currency        string          `json:"currency"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	Lines           []LineResponse  `json:"lines"`
	Steps           []StepResponse  `json:"approval_steps"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	OrderedAt       *time.Time      `json:"ordered_at,omitempty"`
	PONumber        string          `json:"po_number,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// RequisitionListResponse is the compact list view of a requisition
type RequisitionListResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	RequesterName string          `json:"requester_name"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CurrentStep   string          `json:"current_step,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToRequisitionResponse converts a domain requisition to its API view
func ToRequisitionResponse(r *requisition.Requisition) RequisitionResponse {
	lines := make([]LineResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = LineResponse{
			LineNo:      l.LineNo,
			Description: l.Description,
			Category:    l.Category,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
		}
	}
	steps := make([]StepResponse, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = StepResponse{
			Sequence:    s.Sequence,
			Role:        string(s.Role),
			ApproverID:  s.ApproverID,
			Status:      string(s.Status),
			ActivatedAt: s.ActivatedAt,
			DecidedAt:   s.DecidedAt,
			DeciderID:   s.DeciderID,
			DeciderName: s.DeciderName,
			Comment:     s.Comment,
		}
	}
	return RequisitionResponse{
		ID:              r.ID,
		Number:          r.Number,
		RequesterID:     r.RequesterID,
		RequesterName:   r.RequesterName,
		Department:      r.Department,
		Title:           r.Title,
		Justification:   r.Justification,
		SupplierID:      r.SupplierID,
		SupplierName:    r.SupplierName,
		ContractID:      r.ContractID,
		NeededBy:        r.NeededBy,
		Currency:        r.Currency,
		TotalAmount:     r.TotalAmount,
		Status:          r.Status.String(),
		Lines:           lines,
		Steps:           steps,
		SubmittedAt:     r.SubmittedAt,
		ApprovedAt:      r.ApprovedAt,
		OrderedAt:       r.OrderedAt,
		PONumber:        r.PONumber,
		RejectionReason: r.RejectionReason,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

// ToRequisitionListResponses converts requisitions to list views
func ToRequisitionListResponses(reqs []requisition.Requisition) []RequisitionListResponse {
	out := make([]RequisitionListResponse, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		out[i] = RequisitionListResponse{
			ID:            r.ID,
			Number:        r.Number,
			Title:         r.Title,
			RequesterName: r.RequesterName,
			SupplierName:  r.SupplierName,
			TotalAmount:   r.TotalAmount,
			Currency:      r.Currency,
			Status:        r.Status.String(),
			CreatedAt:     r.CreatedAt,
		}
		if step := r.CurrentStep(); step != nil {
			out[i].CurrentStep = string(step.Role)
		}
	}
	return out
}

func toLineInputs(lines []LineRequest) []requisition.LineInput {
	out := make([]requisition.LineInput, len(lines))
	for i, l := range lines {
		out[i] = requisition.LineInput{
			Description: l.Description,
			Category:    l.Category,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}
	return out
}
