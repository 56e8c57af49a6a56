package requisition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Line is one item on a requisition
type Line struct {
	ID            uuid.UUID
	RequisitionID uuid.UUID
	LineNo        int
	Description   string
	Category      string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Amount        decimal.Decimal
}

// LineInput describes a requisition line to set
type LineInput struct {
	Description string
	Category    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// ApprovalStep is one link of the approval chain. ApproverID is set for the
// manager step; procurement and finance steps are decided by anyone in the
// role pool.
type ApprovalStep struct {
	ID            uuid.UUID
	RequisitionID uuid.UUID
	Sequence      int
	Role          ApproverRole
	ApproverID    *uuid.UUID
	Status        StepStatus
	ActivatedAt   *time.Time
	DecidedAt     *time.Time
	DeciderID     *uuid.UUID
	DeciderName   string
	Comment       string
	Reminder      reminder.Tracker
}

// Decider is a user attempting to decide an approval step
type Decider struct {
	ID    uuid.UUID
	Name  string
	Pools []ApproverRole
	Admin bool
}

func (d Decider) inPool(role ApproverRole) bool {
	for _, p := range d.Pools {
		if p == role {
			return true
		}
	}
	return false
}

// Requisition is a request to buy goods or services. It is the aggregate
// root for the requisition workflow.
type Requisition struct {
	shared.TenantAggregateRoot
	Number          string
	RequesterID     uuid.UUID
	RequesterName   string
	Department      string
	Title           string
	Justification   string
	SupplierID      *uuid.UUID
	SupplierName    string
	ContractID      *uuid.UUID
	NeededBy        *time.Time
	Currency        string
	Lines           []Line
	TotalAmount     decimal.Decimal
	Status          Status
	Steps           []ApprovalStep
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	OrderedAt       *time.Time
	PONumber        string
	RejectionReason string
	CancelReason    string
}

// NewRequisition creates a draft requisition
func NewRequisition(tenantID uuid.UUID, number string, requesterID uuid.UUID, requesterName, title, currency string) (*Requisition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Requisition title is required")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Requisition title cannot exceed 200 characters")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	r := &Requisition{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		RequesterID:         requesterID,
		RequesterName:       requesterName,
		Title:               title,
		Currency:            strings.ToUpper(currency),
		Lines:               make([]Line, 0),
		TotalAmount:         decimal.Zero,
		Status:              StatusDraft,
		Steps:               make([]ApprovalStep, 0),
	}
	r.SetCreatedBy(requesterID)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeCreated, r, nil, ""))
	return r, nil
}

// UpdateDetails changes the descriptive fields of a draft
func (r *Requisition) UpdateDetails(title, justification, department string, neededBy *time.Time) error {
	if err := r.expectDraft(); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title != "" {
		r.Title = title
	}
	r.Justification = strings.TrimSpace(justification)
	r.Department = strings.TrimSpace(department)
	r.NeededBy = neededBy
	r.Touch()
	return nil
}

// SetSupplier links a preferred supplier and optional contract
func (r *Requisition) SetSupplier(supplierID *uuid.UUID, supplierName string, contractID *uuid.UUID) error {
	if err := r.expectDraft(); err != nil {
		return err
	}
	if supplierID == nil && contractID != nil {
		return shared.NewDomainError("INVALID_CONTRACT", "A contract requires a supplier")
	}
	r.SupplierID = supplierID
	r.SupplierName = supplierName
	if supplierID == nil {
		r.SupplierName = ""
	}
	r.ContractID = contractID
	r.Touch()
	return nil
}

// SetLines replaces all lines and recalculates the total
func (r *Requisition) SetLines(inputs []LineInput) error {
	if err := r.expectDraft(); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return shared.NewDomainError("NO_LINES", "Requisition must have at least one line")
	}
	lines := make([]Line, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		if strings.TrimSpace(in.Description) == "" {
			return shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Line %d: description is required", i+1))
		}
		if !in.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Line %d: quantity must be positive", i+1))
		}
		if in.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Line %d: unit price cannot be negative", i+1))
		}
		amount := in.Quantity.Mul(in.UnitPrice).Round(2)
		lines = append(lines, Line{
			ID:            uuid.New(),
			RequisitionID: r.ID,
			LineNo:        i + 1,
			Description:   strings.TrimSpace(in.Description),
			Category:      strings.TrimSpace(in.Category),
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			Amount:        amount,
		})
		total = total.Add(amount)
	}
	r.Lines = lines
	r.TotalAmount = total
	r.Touch()
	return nil
}

// Submit builds the approval chain and activates its first step.
// managerID is the requester's manager at submission time.
func (r *Requisition) Submit(policy ApprovalPolicy, managerID *uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusPendingApproval) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, StatusPendingApproval))
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Requisition must have at least one line")
	}
	if managerID == nil || *managerID == uuid.Nil {
		return shared.NewDomainError("NO_MANAGER", "Requester has no manager to approve the requisition")
	}
	if *managerID == r.RequesterID {
		return shared.NewDomainError("SELF_APPROVAL", "Requester cannot be their own approver")
	}

	now := shared.Now()
	chain := policy.Chain(r.TotalAmount)
	steps := make([]ApprovalStep, 0, len(chain))
	for i, role := range chain {
		step := ApprovalStep{
			ID:            uuid.New(),
			RequisitionID: r.ID,
			Sequence:      i + 1,
			Role:          role,
			Status:        StepWaiting,
		}
		if role == ApproverManager {
			mgr := *managerID
			step.ApproverID = &mgr
		}
		steps = append(steps, step)
	}
	r.Steps = steps
	r.Status = StatusPendingApproval
	r.SubmittedAt = &now
	r.RejectionReason = ""
	r.Touch()
	r.AddDomainEvent(NewRequisitionEvent(EventTypeSubmitted, r, nil, ""))
	r.activate(0, now)
	return nil
}

// CurrentStep returns the step awaiting a decision
func (r *Requisition) CurrentStep() *ApprovalStep {
	for i := range r.Steps {
		if r.Steps[i].Status == StepPending {
			return &r.Steps[i]
		}
	}
	return nil
}

// CanDecide reports whether the user may decide the current step
func (r *Requisition) CanDecide(d Decider) error {
	if r.Status != StatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Requisition is %s", r.Status))
	}
	step := r.CurrentStep()
	if step == nil {
		return shared.NewDomainError("INVALID_STATE", "Requisition has no pending approval step")
	}
	if d.ID == r.RequesterID {
		return shared.NewDomainError("SELF_APPROVAL", "You cannot approve your own requisition")
	}
	if d.Admin {
		return nil
	}
	if step.ApproverID != nil && *step.ApproverID == d.ID {
		return nil
	}
	if step.ApproverID == nil && d.inPool(step.Role) {
		return nil
	}
	return shared.NewDomainError("NOT_CURRENT_APPROVER", "You are not an approver for the current step")
}

// Approve records approval of the current step and activates the next one
func (r *Requisition) Approve(d Decider, comment string) error {
	if err := r.CanDecide(d); err != nil {
		return err
	}
	now := shared.Now()
	step := r.CurrentStep()
	r.decide(step, StepApproved, d, comment, now)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeStepApproved, r, step, comment))

	next := step.Sequence // index of the following step
	if next < len(r.Steps) {
		r.Touch()
		r.activate(next, now)
		return nil
	}

	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.Touch()
	r.AddDomainEvent(NewRequisitionEvent(EventTypeApproved, r, step, comment))
	return nil
}

// Reject records rejection of the current step and closes the requisition
func (r *Requisition) Reject(d Decider, comment string) error {
	if err := r.CanDecide(d); err != nil {
		return err
	}
	if strings.TrimSpace(comment) == "" {
		return shared.NewDomainError("COMMENT_REQUIRED", "A comment is required when rejecting")
	}
	now := shared.Now()
	step := r.CurrentStep()
	r.decide(step, StepRejected, d, comment, now)
	r.skipWaiting()
	r.Status = StatusRejected
	r.RejectionReason = strings.TrimSpace(comment)
	r.Touch()
	r.AddDomainEvent(NewRequisitionEvent(EventTypeRejected, r, step, comment))
	return nil
}

// Cancel withdraws a draft or pending requisition
func (r *Requisition) Cancel(reason string) error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, StatusCancelled))
	}
	for i := range r.Steps {
		if r.Steps[i].Status == StepPending {
			r.Steps[i].Status = StepSkipped
		}
	}
	r.skipWaiting()
	r.Status = StatusCancelled
	r.CancelReason = strings.TrimSpace(reason)
	r.Touch()
	r.AddDomainEvent(NewRequisitionEvent(EventTypeCancelled, r, nil, reason))
	return nil
}

// MarkOrdered records that a purchase order was placed
func (r *Requisition) MarkOrdered(poNumber string) error {
	if !r.Status.CanTransitionTo(StatusOrdered) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, StatusOrdered))
	}
	poNumber = strings.TrimSpace(poNumber)
	if poNumber == "" {
		return shared.NewDomainError("INVALID_PO_NUMBER", "Purchase order number is required")
	}
	now := shared.Now()
	r.Status = StatusOrdered
	r.OrderedAt = &now
	r.PONumber = poNumber
	r.Touch()
	r.AddDomainEvent(NewRequisitionEvent(EventTypeOrdered, r, nil, poNumber))
	return nil
}

// RecordReminder books a reminder or escalation on the current step
func (r *Requisition) RecordReminder(action reminder.Action, now time.Time) {
	step := r.CurrentStep()
	if step == nil {
		return
	}
	step.Reminder.Record(action, now)
	r.Touch()
}

// IsRequester reports whether the user raised the requisition
func (r *Requisition) IsRequester(userID uuid.UUID) bool {
	return r.RequesterID == userID
}

func (r *Requisition) activate(idx int, now time.Time) {
	step := &r.Steps[idx]
	step.Status = StepPending
	step.ActivatedAt = &now
	step.Reminder.Reset(now)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeStepActivated, r, step, ""))
}

func (r *Requisition) decide(step *ApprovalStep, status StepStatus, d Decider, comment string, now time.Time) {
	id := d.ID
	step.Status = status
	step.DecidedAt = &now
	step.DeciderID = &id
	step.DeciderName = d.Name
	step.Comment = strings.TrimSpace(comment)
}

func (r *Requisition) skipWaiting() {
	for i := range r.Steps {
		if r.Steps[i].Status == StepWaiting {
			r.Steps[i].Status = StepSkipped
		}
	}
}

func (r *Requisition) expectDraft() error {
	if r.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft requisitions can be edited")
	}
	return nil
}
