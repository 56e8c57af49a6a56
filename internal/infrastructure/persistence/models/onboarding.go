package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurement/backend/internal/domain/onboarding"
)

// OnboardingRequestModel is the persistence model for onboarding.Request
type OnboardingRequestModel struct {
	TenantAggregateModel
	ReminderColumns
	RequestNumber        string            `gorm:"type:varchar(30);not null"`
	SupplierID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	SupplierName         string            `gorm:"type:varchar(200);not null"`
	SupplierEmail        string            `gorm:"type:varchar(200);not null"`
	Category             string            `gorm:"type:varchar(100)"`
	RequesterID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	ManagerID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	ReviewerID           *uuid.UUID        `gorm:"type:uuid"`
	Justification        string            `gorm:"type:text;not null"`
	EstimatedAnnualSpend decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Currency             string            `gorm:"type:varchar(3);not null"`
	Status               onboarding.Status `gorm:"type:varchar(40);not null;index"`
	InvitationTokenHash  string            `gorm:"type:varchar(64);index"`
	InvitationExpiresAt  *time.Time
	RequiredDocuments    StringList `gorm:"type:text"`
	RevisionNote         string     `gorm:"type:text"`
	RequestedDocuments   StringList `gorm:"type:text"`
	RejectionReason      string     `gorm:"type:text"`
	DecidedAt            *time.Time

	Documents []OnboardingDocumentModel `gorm:"foreignKey:RequestID"`
	Steps     []OnboardingStepModel     `gorm:"foreignKey:RequestID"`
}

// TableName returns the table name for GORM
func (OnboardingRequestModel) TableName() string {
	return "onboarding_requests"
}

// OnboardingDocumentModel is one document a supplier submitted
type OnboardingDocumentModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	RequestID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	DocumentType string                    `gorm:"type:varchar(50);not null"`
	FileName     string                    `gorm:"type:varchar(255);not null"`
	StorageKey   string                    `gorm:"type:varchar(500);not null"`
	ContentType  string                    `gorm:"type:varchar(100)"`
	Status       onboarding.DocumentStatus `gorm:"type:varchar(20);not null"`
	UploadedAt   time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OnboardingDocumentModel) TableName() string {
	return "onboarding_documents"
}

// OnboardingStepModel is one audit trail entry
type OnboardingStepModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey"`
	RequestID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Action     onboarding.Action    `gorm:"type:varchar(40);not null"`
	FromStatus onboarding.Status    `gorm:"type:varchar(40)"`
	ToStatus   onboarding.Status    `gorm:"type:varchar(40);not null"`
	ActorID    *uuid.UUID           `gorm:"type:uuid"`
	ActorType  onboarding.ActorType `gorm:"type:varchar(20);not null"`
	ActorName  string               `gorm:"type:varchar(200)"`
	Note       string               `gorm:"type:text"`
	At         time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OnboardingStepModel) TableName() string {
	return "onboarding_steps"
}

// ToDomain converts the model and its loaded children to a domain Request
func (m *OnboardingRequestModel) ToDomain() *onboarding.Request {
	r := &onboarding.Request{
		TenantAggregateRoot:  m.ToDomainTenantAggregateRoot(),
		RequestNumber:        m.RequestNumber,
		SupplierID:           m.SupplierID,
		SupplierName:         m.SupplierName,
		SupplierEmail:        m.SupplierEmail,
		Category:             m.Category,
		RequesterID:          m.RequesterID,
		ManagerID:            m.ManagerID,
		ReviewerID:           m.ReviewerID,
		Justification:        m.Justification,
		EstimatedAnnualSpend: m.EstimatedAnnualSpend,
		Currency:             m.Currency,
		Status:               m.Status,
		Reminder:             m.ReminderColumns.Tracker(),
		InvitationTokenHash:  m.InvitationTokenHash,
		InvitationExpiresAt:  m.InvitationExpiresAt,
		RequiredDocuments:    m.RequiredDocuments.Strings(),
		RevisionNote:         m.RevisionNote,
		RequestedDocuments:   m.RequestedDocuments.Strings(),
		RejectionReason:      m.RejectionReason,
		DecidedAt:            m.DecidedAt,
		Documents:            make([]onboarding.Document, len(m.Documents)),
		Steps:                make([]onboarding.Step, len(m.Steps)),
	}
	for i, d := range m.Documents {
		r.Documents[i] = onboarding.Document{
			ID:           d.ID,
			RequestID:    d.RequestID,
			DocumentType: d.DocumentType,
			FileName:     d.FileName,
			StorageKey:   d.StorageKey,
			ContentType:  d.ContentType,
			Status:       d.Status,
			UploadedAt:   d.UploadedAt,
		}
	}
	for i, s := range m.Steps {
		r.Steps[i] = onboarding.Step{
			ID:         s.ID,
			RequestID:  s.RequestID,
			Action:     s.Action,
			FromStatus: s.FromStatus,
			ToStatus:   s.ToStatus,
			ActorID:    s.ActorID,
			ActorType:  s.ActorType,
			ActorName:  s.ActorName,
			Note:       s.Note,
			At:         s.At,
		}
	}
	return r
}

// FromDomain populates the model and its children from a domain Request
func (m *OnboardingRequestModel) FromDomain(r *onboarding.Request) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.ReminderColumns.FromTracker(r.Reminder)
	m.RequestNumber = r.RequestNumber
	m.SupplierID = r.SupplierID
	m.SupplierName = r.SupplierName
	m.SupplierEmail = r.SupplierEmail
	m.Category = r.Category
	m.RequesterID = r.RequesterID
	m.ManagerID = r.ManagerID
	m.ReviewerID = r.ReviewerID
	m.Justification = r.Justification
	m.EstimatedAnnualSpend = r.EstimatedAnnualSpend
	m.Currency = r.Currency
	m.Status = r.Status
	m.InvitationTokenHash = r.InvitationTokenHash
	m.InvitationExpiresAt = r.InvitationExpiresAt
	m.RequiredDocuments = StringList(r.RequiredDocuments)
	m.RevisionNote = r.RevisionNote
	m.RequestedDocuments = StringList(r.RequestedDocuments)
	m.RejectionReason = r.RejectionReason
	m.DecidedAt = r.DecidedAt

	m.Documents = make([]OnboardingDocumentModel, len(r.Documents))
	for i, d := range r.Documents {
		m.Documents[i] = OnboardingDocumentModel{
			ID:           d.ID,
			RequestID:    r.ID,
			DocumentType: d.DocumentType,
			FileName:     d.FileName,
			StorageKey:   d.StorageKey,
			ContentType:  d.ContentType,
			Status:       d.Status,
			UploadedAt:   d.UploadedAt,
		}
	}
	m.Steps = make([]OnboardingStepModel, len(r.Steps))
	for i, s := range r.Steps {
		m.Steps[i] = OnboardingStepModel{
			ID:         s.ID,
			RequestID:  r.ID,
			Action:     s.Action,
			FromStatus: s.FromStatus,
			ToStatus:   s.ToStatus,
			ActorID:    s.ActorID,
			ActorType:  s.ActorType,
			ActorName:  s.ActorName,
			Note:       s.Note,
			At:         s.At,
		}
	}
}

// OnboardingRequestModelFromDomain creates a model from a domain Request
func OnboardingRequestModelFromDomain(r *onboarding.Request) *OnboardingRequestModel {
	m := &OnboardingRequestModel{}
	m.FromDomain(r)
	return m
}
