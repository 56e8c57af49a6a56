package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
)

// Decision values accepted by the manager and procurement decision endpoints
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// InitiateRequest starts onboarding for a new supplier
type InitiateRequest struct {
	SupplierName         string          `json:"supplier_name" binding:"required,min=1,max=200"`
	Category             string          `json:"category" binding:"max=100"`
	ContactName          string          `json:"contact_name" binding:"max=100"`
	ContactEmail         string          `json:"contact_email" binding:"required,email"`
	Justification        string          `json:"justification" binding:"required,max=2000"`
	EstimatedAnnualSpend decimal.Decimal `json:"estimated_annual_spend"`
	Currency             string          `json:"currency" binding:"omitempty,currency"`
	ManagerID            *uuid.UUID      `json:"manager_id"`
}

// DecisionRequest is an approve or reject decision with an optional comment.
// A comment is required to reject.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comment  string `json:"comment" binding:"max=2000"`
}

// RevisionRequest sends a submission back to the supplier
type RevisionRequest struct {
	Note          string   `json:"note" binding:"required,max=2000"`
	DocumentTypes []string `json:"document_types"`
}

// NoteRequest carries an optional note
type NoteRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// ReasonRequest carries a required reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// ListFilter represents filter options for the onboarding list
type ListFilter struct {
	Search      string     `form:"search"`
	Status      string     `form:"status"`
	RequesterID *uuid.UUID `form:"-"` // query requester_id, parsed by the handler
	SupplierID  *uuid.UUID `form:"-"` // query supplier_id, parsed by the handler
	ManagerID   *uuid.UUID `form:"-"` // query manager_id, parsed by the handler
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// DocumentResponse is the API view of a supplier document
type DocumentResponse struct {
	ID           uuid.UUID `json:"id"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type,omitempty"`
	Status       string    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// StepResponse is one entry of a request's history
type StepResponse struct {
	Action     string     `json:"action"`
	FromStatus string     `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	ActorType  string     `json:"actor_type"`
	ActorName  string     `json:"actor_name"`
	Note       string     `json:"note,omitempty"`
	At         time.Time  `json:"at"`
}

// RequestResponse is the API view of an onboarding request
type RequestResponse struct {
	ID                   uuid.UUID          `json:"id"`
	RequestNumber        string             `json:"request_number"`
	SupplierID           uuid.UUID          `json:"supplier_id"`
	SupplierName         string             `json:"supplier_name"`
	SupplierEmail        string             `json:"supplier_email"`
	Category             string             `json:"category,omitempty"`
	RequesterID          uuid.UUID          `json:"requester_id"`
	ManagerID            uuid.UUID          `json:"manager_id"`
	ReviewerID           *uuid.UUID         `json:"reviewer_id,omitempty"`
	Justification        string             `json:"justification"`
	EstimatedAnnualSpend decimal.Decimal    `json:"estimated_annual_spend"`
	Currency             string             `json:"currency"`
	Status               string             `json:"status"`
	StageEnteredAt       time.Time          `json:"stage_entered_at"`
	InvitationExpiresAt  *time.Time         `json:"invitation_expires_at,omitempty"`
	RequiredDocuments    []string           `json:"required_documents"`
	RequestedDocuments   []string           `json:"requested_documents,omitempty"`
	RevisionNote         string             `json:"revision_note,omitempty"`
	RejectionReason      string             `json:"rejection_reason,omitempty"`
	ReminderCount        int                `json:"reminder_count"`
	Escalated            bool               `json:"escalated"`
	DecidedAt            *time.Time         `json:"decided_at,omitempty"`
	Documents            []DocumentResponse `json:"documents"`
	Steps                []StepResponse     `json:"steps,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	Version              int                `json:"version"`
}

// RequestListResponse is the compact list view of a request
type RequestListResponse struct {
	ID             uuid.UUID `json:"id"`
	RequestNumber  string    `json:"request_number"`
	SupplierID     uuid.UUID `json:"supplier_id"`
	SupplierName   string    `json:"supplier_name"`
	RequesterID    uuid.UUID `json:"requester_id"`
	Status         string    `json:"status"`
	StageEnteredAt time.Time `json:"stage_entered_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// PortalDocument references an object the supplier uploaded
type PortalDocument struct {
	DocumentType string `json:"document_type" binding:"required,max=50"`
	FileName     string `json:"file_name" binding:"required,max=255"`
	StorageKey   string `json:"storage_key" binding:"required,max=500"`
	ContentType  string `json:"content_type" binding:"max=100"`
}

// PortalSubmitRequest is the supplier's registration submission
type PortalSubmitRequest struct {
	LegalName    string           `json:"legal_name" binding:"required,max=200"`
	TaxID        string           `json:"tax_id" binding:"max=50"`
	Website      string           `json:"website" binding:"omitempty,url"`
	ContactName  string           `json:"contact_name" binding:"max=100"`
	ContactPhone string           `json:"contact_phone" binding:"max=50"`
	Address      string           `json:"address" binding:"max=500"`
	Country      string           `json:"country" binding:"max=100"`
	BankName     string           `json:"bank_name" binding:"max=200"`
	BankAccount  string           `json:"bank_account" binding:"max=100"`
	Documents    []PortalDocument `json:"documents" binding:"required,min=1,dive"`
}

// Profile returns the supplier profile part of the submission
func (r PortalSubmitRequest) Profile() supplier.Profile {
	return supplier.Profile{
		LegalName:    r.LegalName,
		TaxID:        r.TaxID,
		Website:      r.Website,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
		Country:      r.Country,
		BankName:     r.BankName,
		BankAccount:  r.BankAccount,
	}
}

// PortalUploadRequest asks for an upload URL for one document
type PortalUploadRequest struct {
	DocumentType string `json:"document_type" binding:"required,max=50"`
	FileName     string `json:"file_name" binding:"required,max=255"`
	ContentType  string `json:"content_type" binding:"required,max=100"`
}

// PortalUploadResponse is the pre-signed upload target
type PortalUploadResponse struct {
	StorageKey string                `json:"storage_key"`
	Upload     *storage.PresignedURL `json:"upload"`
}

// PortalViewResponse is what the supplier sees when opening the portal link
type PortalViewResponse struct {
	RequestNumber      string             `json:"request_number"`
	SupplierName       string             `json:"supplier_name"`
	Status             string             `json:"status"`
	CanSubmit          bool               `json:"can_submit"`
	RequiredDocuments  []string           `json:"required_documents"`
	RequestedDocuments []string           `json:"requested_documents,omitempty"`
	RevisionNote       string             `json:"revision_note,omitempty"`
	AllowedMimeTypes   []string           `json:"allowed_mime_types,omitempty"`
	ExpiresAt          *time.Time         `json:"expires_at,omitempty"`
	Documents          []DocumentResponse `json:"documents"`
}

// ToRequestResponse converts a domain request to its API view
func ToRequestResponse(r *onboarding.Request) RequestResponse {
	return RequestResponse{
		ID:                   r.ID,
		RequestNumber:        r.RequestNumber,
		SupplierID:           r.SupplierID,
		SupplierName:         r.SupplierName,
		SupplierEmail:        r.SupplierEmail,
		Category:             r.Category,
		RequesterID:          r.RequesterID,
		ManagerID:            r.ManagerID,
		ReviewerID:           r.ReviewerID,
		Justification:        r.Justification,
		EstimatedAnnualSpend: r.EstimatedAnnualSpend,
		Currency:             r.Currency,
		Status:               r.Status.String(),
		StageEnteredAt:       r.Reminder.StageEnteredAt,
		InvitationExpiresAt:  r.InvitationExpiresAt,
		RequiredDocuments:    nonNil(r.RequiredDocuments),
		RequestedDocuments:   r.RequestedDocuments,
		RevisionNote:         r.RevisionNote,
		RejectionReason:      r.RejectionReason,
		ReminderCount:        r.Reminder.ReminderCount,
		Escalated:            r.Reminder.Escalated,
		DecidedAt:            r.DecidedAt,
		Documents:            toDocumentResponses(r.Documents),
		Steps:                ToStepResponses(r.Steps),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		Version:              r.Version,
	}
}

// ToRequestListResponses converts requests to list views
func ToRequestListResponses(requests []onboarding.Request) []RequestListResponse {
	out := make([]RequestListResponse, len(requests))
	for i := range requests {
		r := &requests[i]
		out[i] = RequestListResponse{
			ID:             r.ID,
			RequestNumber:  r.RequestNumber,
			SupplierID:     r.SupplierID,
			SupplierName:   r.SupplierName,
			RequesterID:    r.RequesterID,
			Status:         r.Status.String(),
			StageEnteredAt: r.Reminder.StageEnteredAt,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out
}

// ToStepResponses converts the audit trail
func ToStepResponses(steps []onboarding.Step) []StepResponse {
	out := make([]StepResponse, len(steps))
	for i, s := range steps {
		out[i] = StepResponse{
			Action:     string(s.Action),
			FromStatus: s.FromStatus.String(),
			ToStatus:   s.ToStatus.String(),
			ActorID:    s.ActorID,
			ActorType:  string(s.ActorType),
			ActorName:  s.ActorName,
			Note:       s.Note,
			At:         s.At,
		}
	}
	return out
}

func toDocumentResponses(docs []onboarding.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = DocumentResponse{
			ID:           d.ID,
			DocumentType: d.DocumentType,
			FileName:     d.FileName,
			ContentType:  d.ContentType,
			Status:       string(d.Status),
			UploadedAt:   d.UploadedAt,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
