package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurement/backend/internal/domain/requisition"
)

// RequisitionModel is the persistence model for requisition.Requisition
type RequisitionModel struct {
	TenantAggregateModel
	Number          string     `gorm:"type:varchar(30);not null"`
	RequesterID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequesterName   string     `gorm:"type:varchar(200)"`
	Department      string     `gorm:"type:varchar(100)"`
	Title           string     `gorm:"type:varchar(200);not null"`
	Justification   string     `gorm:"type:text"`
	SupplierID      *uuid.UUID `gorm:"type:uuid;index"`
	SupplierName    string     `gorm:"type:varchar(200)"`
	ContractID      *uuid.UUID `gorm:"type:uuid"`
	NeededBy        *time.Time
	Currency        string             `gorm:"type:varchar(3);not null"`
	TotalAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Status          requisition.Status `gorm:"type:varchar(30);not null;index"`
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	OrderedAt       *time.Time
	PONumber        string `gorm:"column:po_number;type:varchar(50)"`
	RejectionReason string `gorm:"type:text"`
	CancelReason    string `gorm:"type:text"`

	Lines []RequisitionLineModel `gorm:"foreignKey:RequisitionID"`
	Steps []ApprovalStepModel    `gorm:"foreignKey:RequisitionID"`
}

// TableName returns the table name for GORM
func (RequisitionModel) TableName() string {
	return "requisitions"
}

// RequisitionLineModel is one requisition line
type RequisitionLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RequisitionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	Description   string          `gorm:"type:varchar(500);not null"`
	Category      string          `gorm:"type:varchar(100)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (RequisitionLineModel) TableName() string {
	return "requisition_lines"
}

// ApprovalStepModel is one step of a requisition approval chain
type ApprovalStepModel struct {
	ReminderColumns
	ID            uuid.UUID                `gorm:"type:uuid;primaryKey"`
	RequisitionID uuid.UUID                `gorm:"type:uuid;not null;index"`
	Sequence      int                      `gorm:"not null"`
	Role          requisition.ApproverRole `gorm:"type:varchar(20);not null"`
	ApproverID    *uuid.UUID               `gorm:"type:uuid;index"`
	Status        requisition.StepStatus   `gorm:"type:varchar(20);not null"`
	ActivatedAt   *time.Time
	DecidedAt     *time.Time
	DeciderID     *uuid.UUID `gorm:"type:uuid"`
	DeciderName   string     `gorm:"type:varchar(200)"`
	Comment       string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApprovalStepModel) TableName() string {
	return "requisition_approval_steps"
}

// ToDomain converts the model and its loaded children to a domain Requisition
func (m *RequisitionModel) ToDomain() *requisition.Requisition {
	r := &requisition.Requisition{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Number:              m.Number,
		RequesterID:         m.RequesterID,
		RequesterName:       m.RequesterName,
		Department:          m.Department,
		Title:               m.Title,
		Justification:       m.Justification,
		SupplierID:          m.SupplierID,
		SupplierName:        m.SupplierName,
		ContractID:          m.ContractID,
		NeededBy:            m.NeededBy,
		Currency:            m.Currency,
		TotalAmount:         m.TotalAmount,
		Status:              m.Status,
		SubmittedAt:         m.SubmittedAt,
		ApprovedAt:          m.ApprovedAt,
		OrderedAt:           m.OrderedAt,
		PONumber:            m.PONumber,
		RejectionReason:     m.RejectionReason,
		CancelReason:        m.CancelReason,
		Lines:               make([]requisition.Line, len(m.Lines)),
		Steps:               make([]requisition.ApprovalStep, len(m.Steps)),
	}
	for i, l := range m.Lines {
		r.Lines[i] = requisition.Line{
			ID:            l.ID,
			RequisitionID: l.RequisitionID,
			LineNo:        l.LineNo,
			Description:   l.Description,
			Category:      l.Category,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Amount:        l.Amount,
		}
	}
	for i, s := range m.Steps {
		r.Steps[i] = requisition.ApprovalStep{
			ID:            s.ID,
			RequisitionID: s.RequisitionID,
			Sequence:      s.Sequence,
			Role:          s.Role,
			ApproverID:    s.ApproverID,
			Status:        s.Status,
			ActivatedAt:   s.ActivatedAt,
			DecidedAt:     s.DecidedAt,
			DeciderID:     s.DeciderID,
			DeciderName:   s.DeciderName,
			Comment:       s.Comment,
			Reminder:      s.ReminderColumns.Tracker(),
		}
	}
	return r
}

// FromDomain populates the model and its children from a domain Requisition
func (m *RequisitionModel) FromDomain(r *requisition.Requisition) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.Number = r.Number
	m.RequesterID = r.RequesterID
	m.RequesterName = r.RequesterName
	m.Department = r.Department
	m.Title = r.Title
	m.Justification = r.Justification
	m.SupplierID = r.SupplierID
	m.SupplierName = r.SupplierName
	m.ContractID = r.ContractID
	m.NeededBy = r.NeededBy
	m.Currency = r.Currency
	m.TotalAmount = r.TotalAmount
	m.Status = r.Status
	m.SubmittedAt = r.SubmittedAt
	m.ApprovedAt = r.ApprovedAt
	m.OrderedAt = r.OrderedAt
	m.PONumber = r.PONumber
	m.RejectionReason = r.RejectionReason
	m.CancelReason = r.CancelReason

	m.Lines = make([]RequisitionLineModel, len(r.Lines))
	for i, l := range r.Lines {
		m.Lines[i] = RequisitionLineModel{
			ID:            l.ID,
			RequisitionID: r.ID,
			LineNo:        l.LineNo,
			Description:   l.Description,
			Category:      l.Category,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Amount:        l.Amount,
		}
	}
	m.Steps = make([]ApprovalStepModel, len(r.Steps))
	for i, s := range r.Steps {
		step := ApprovalStepModel{
			ID:            s.ID,
			RequisitionID: r.ID,
			Sequence:      s.Sequence,
			Role:          s.Role,
			ApproverID:    s.ApproverID,
			Status:        s.Status,
			ActivatedAt:   s.ActivatedAt,
			DecidedAt:     s.DecidedAt,
			DeciderID:     s.DeciderID,
			DeciderName:   s.DeciderName,
			Comment:       s.Comment,
		}
		step.ReminderColumns.FromTracker(s.Reminder)
		m.Steps[i] = step
	}
}

// RequisitionModelFromDomain creates a model from a domain Requisition
func RequisitionModelFromDomain(r *requisition.Requisition) *RequisitionModel {
	m := &RequisitionModel{}
	m.FromDomain(r)
	return m
}
