package supplier

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a supplier
type Status string

const (
	StatusPending   Status = "PENDING"   // Onboarding in progress
	StatusActive    Status = "ACTIVE"    // Approved and usable
	StatusSuspended Status = "SUSPENDED" // Temporarily blocked
	StatusInactive  Status = "INACTIVE"  // Onboarding rejected or cancelled
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// Supplier is the supplier master record. It is created in PENDING by an
// onboarding request and only becomes ACTIVE when onboarding is approved.
type Supplier struct {
	shared.TenantAggregateRoot
	Code            string
	Name            string
	LegalName       string
	TaxID           string
	Category        string
	Website         string
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	Address         string
	Country         string
	BankName        string
	BankAccount     string
	Status          Status
	SuspendedReason string
	ApprovedAt      *time.Time
}

// Profile is the self-service part of the supplier record that the supplier
// fills in through the onboarding portal
type Profile struct {
	LegalName    string
	TaxID        string
	Website      string
	ContactName  string
	ContactPhone string
	Address      string
	Country      string
	BankName     string
	BankAccount  string
}

// NewSupplier creates a pending supplier
func NewSupplier(tenantID uuid.UUID, name, category, contactName, contactEmail string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(contactEmail) == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT_EMAIL", "Supplier contact email is required")
	}

	s := &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Category:            strings.TrimSpace(category),
		ContactName:         strings.TrimSpace(contactName),
		ContactEmail:        strings.ToLower(strings.TrimSpace(contactEmail)),
		Status:              StatusPending,
	}
	s.AddDomainEvent(NewSupplierCreatedEvent(s))
	return s, nil
}

// UpdateProfile applies profile fields; empty values leave the field unchanged
func (s *Supplier) UpdateProfile(p Profile) error {
	if s.Status == StatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Cannot update an inactive supplier")
	}
	if len(p.TaxID) > 50 {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID cannot exceed 50 characters")
	}
	setIf(&s.LegalName, p.LegalName)
	setIf(&s.TaxID, p.TaxID)
	setIf(&s.Website, p.Website)
	setIf(&s.ContactName, p.ContactName)
	setIf(&s.ContactPhone, p.ContactPhone)
	setIf(&s.Address, p.Address)
	setIf(&s.Country, p.Country)
	setIf(&s.BankName, p.BankName)
	setIf(&s.BankAccount, p.BankAccount)
	s.Touch()
	s.AddDomainEvent(NewSupplierUpdatedEvent(s))
	return nil
}

// Rename changes the trading name and category
func (s *Supplier) Rename(name, category string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	s.Name = name
	if category != "" {
		s.Category = strings.TrimSpace(category)
	}
	s.Touch()
	s.AddDomainEvent(NewSupplierUpdatedEvent(s))
	return nil
}

// SetContactEmail changes the contact email used for onboarding mail
func (s *Supplier) SetContactEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return shared.NewDomainError("INVALID_CONTACT_EMAIL", "Supplier contact email is required")
	}
	s.ContactEmail = email
	s.Touch()
	return nil
}

// Activate marks the supplier approved and assigns its code
func (s *Supplier) Activate(code string) error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot activate supplier in %s status", s.Status))
	}
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Supplier code is required")
	}
	now := shared.Now()
	s.Code = strings.ToUpper(code)
	s.Status = StatusActive
	s.ApprovedAt = &now
	s.Touch()
	s.AddDomainEvent(NewSupplierStatusChangedEvent(s, StatusPending))
	return nil
}

// Suspend blocks an active supplier
func (s *Supplier) Suspend(reason string) error {
	if s.Status != StatusActive {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot suspend supplier in %s status", s.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A suspension reason is required")
	}
	s.Status = StatusSuspended
	s.SuspendedReason = strings.TrimSpace(reason)
	s.Touch()
	s.AddDomainEvent(NewSupplierStatusChangedEvent(s, StatusActive))
	return nil
}

// Reactivate lifts a suspension
func (s *Supplier) Reactivate() error {
	if s.Status != StatusSuspended {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot reactivate supplier in %s status", s.Status))
	}
	s.Status = StatusActive
	s.SuspendedReason = ""
	s.Touch()
	s.AddDomainEvent(NewSupplierStatusChangedEvent(s, StatusSuspended))
	return nil
}

// Deactivate closes a supplier whose onboarding did not complete
func (s *Supplier) Deactivate() error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot deactivate supplier in %s status", s.Status))
	}
	old := s.Status
	s.Status = StatusInactive
	s.Touch()
	s.AddDomainEvent(NewSupplierStatusChangedEvent(s, old))
	return nil
}

// IsActive returns true if the supplier can be contracted, evaluated and
// charged new spend
func (s *Supplier) IsActive() bool {
	return s.Status == StatusActive
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}
