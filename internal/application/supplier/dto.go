package supplier

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/supplier"
)

// SupplierListFilter represents filter options for the supplier list
type SupplierListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING ACTIVE SUSPENDED INACTIVE"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// UpdateSupplierRequest is the procurement-side profile edit. Nil and empty
// fields are left unchanged.
type UpdateSupplierRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	Category     *string `json:"category" binding:"omitempty,max=100"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	LegalName    string  `json:"legal_name" binding:"max=200"`
	TaxID        string  `json:"tax_id" binding:"max=50"`
	Website      string  `json:"website" binding:"omitempty,url"`
	ContactName  string  `json:"contact_name" binding:"max=100"`
	ContactPhone string  `json:"contact_phone" binding:"max=50"`
	Address      string  `json:"address" binding:"max=500"`
	Country      string  `json:"country" binding:"max=100"`
	BankName     string  `json:"bank_name" binding:"max=200"`
	BankAccount  string  `json:"bank_account" binding:"max=100"`
}

// Profile returns the self-service fields of the request
func (r UpdateSupplierRequest) Profile() supplier.Profile {
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

// SuspendSupplierRequest carries the suspension reason
type SuspendSupplierRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SupplierResponse is the API view of a supplier
type SupplierResponse struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code,omitempty"`
	Name            string     `json:"name"`
	LegalName       string     `json:"legal_name,omitempty"`
	TaxID           string     `json:"tax_id,omitempty"`
	Category        string     `json:"category,omitempty"`
	Website         string     `json:"website,omitempty"`
	ContactName     string     `json:"contact_name,omitempty"`
	ContactEmail    string     `json:"contact_email"`
	ContactPhone    string     `json:"contact_phone,omitempty"`
	Address         string     `json:"address,omitempty"`
	Country         string     `json:"country,omitempty"`
	BankName        string     `json:"bank_name,omitempty"`
	BankAccount     string     `json:"bank_account,omitempty"`
	Status          string     `json:"status"`
	SuspendedReason string     `json:"suspended_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Version         int        `json:"version"`
}

// SupplierListResponse is the compact list view of a supplier
type SupplierListResponse struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code,omitempty"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	ContactEmail string    `json:"contact_email"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *supplier.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:              s.ID,
		Code:            s.Code,
		Name:            s.Name,
		LegalName:       s.LegalName,
		TaxID:           s.TaxID,
		Category:        s.Category,
		Website:         s.Website,
		ContactName:     s.ContactName,
		ContactEmail:    s.ContactEmail,
		ContactPhone:    s.ContactPhone,
		Address:         s.Address,
		Country:         s.Country,
		BankName:        s.BankName,
		BankAccount:     s.BankAccount,
		Status:          s.Status.String(),
		SuspendedReason: s.SuspendedReason,
		ApprovedAt:      s.ApprovedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// ToSupplierListResponses converts suppliers to list views
func ToSupplierListResponses(suppliers []supplier.Supplier) []SupplierListResponse {
	out := make([]SupplierListResponse, len(suppliers))
	for i := range suppliers {
		s := &suppliers[i]
		out[i] = SupplierListResponse{
			ID:           s.ID,
			Code:         s.Code,
			Name:         s.Name,
			Category:     s.Category,
			ContactEmail: s.ContactEmail,
			Status:       s.Status.String(),
			CreatedAt:    s.CreatedAt,
		}
	}
	return out
}
