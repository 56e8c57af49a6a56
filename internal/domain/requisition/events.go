package requisition

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeRequisition is the aggregate type for requisitions
const AggregateTypeRequisition = "Requisition"

// Requisition event types
const (
	EventTypeCreated       = "RequisitionCreated"
	EventTypeSubmitted     = "RequisitionSubmitted"
	EventTypeStepActivated = "RequisitionStepActivated"
	EventTypeStepApproved  = "RequisitionStepApproved"
	EventTypeApproved      = "RequisitionApproved"
	EventTypeRejected      = "RequisitionRejected"
	EventTypeCancelled     = "RequisitionCancelled"
	EventTypeOrdered       = "RequisitionOrdered"
)

// AllEventTypes lists every requisition event type
func AllEventTypes() []string {
	return []string{
		EventTypeCreated, EventTypeSubmitted, EventTypeStepActivated, EventTypeStepApproved,
		EventTypeApproved, EventTypeRejected, EventTypeCancelled, EventTypeOrdered,
	}
}

// RequisitionEvent carries requisition state at the time of a workflow
// step. Step fields are set for step-level events.
type RequisitionEvent struct {
	shared.BaseDomainEvent
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	Status        Status          `json:"status"`
	RequesterID   uuid.UUID       `json:"requester_id"`
	RequesterName string          `json:"requester_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	PONumber      string          `json:"po_number,omitempty"`
	StepSequence  int             `json:"step_sequence,omitempty"`
	StepRole      ApproverRole    `json:"step_role,omitempty"`
	ApproverID    *uuid.UUID      `json:"approver_id,omitempty"`
	DeciderName   string          `json:"decider_name,omitempty"`
	Comment       string          `json:"comment,omitempty"`
	Category      string          `json:"category,omitempty"`
}

// NewRequisitionEvent creates a requisition event of the given type
func NewRequisitionEvent(eventType string, r *Requisition, step *ApprovalStep, comment string) *RequisitionEvent {
	e := &RequisitionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRequisition, r.ID, r.TenantID),
		Number:          r.Number,
		Title:           r.Title,
		Status:          r.Status,
		RequesterID:     r.RequesterID,
		RequesterName:   r.RequesterName,
		TotalAmount:     r.TotalAmount,
		Currency:        r.Currency,
		SupplierID:      r.SupplierID,
		SupplierName:    r.SupplierName,
		ContractID:      r.ContractID,
		PONumber:        r.PONumber,
		Comment:         comment,
	}
	if len(r.Lines) > 0 {
		e.Category = r.Lines[0].Category
	}
	if step != nil {
		e.StepSequence = step.Sequence
		e.StepRole = step.Role
		e.ApproverID = step.ApproverID
		e.DeciderName = step.DeciderName
	}
	return e
}
