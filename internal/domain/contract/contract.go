package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the status of a contract
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
)

// AllStatuses lists every contract status
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusActive, StatusExpired, StatusTerminated}
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusActive
	case StatusActive:
		return target == StatusExpired || target == StatusTerminated || target == StatusActive
	case StatusExpired:
		return target == StatusActive
	case StatusTerminated:
		return false
	}
	return false
}

// DefaultRenewalNoticeDays is used when no notice period is given
const DefaultRenewalNoticeDays = 30

// SweepOutcome reports what a sweep did to a contract
type SweepOutcome string

const (
	SweepNone          SweepOutcome = ""
	SweepRenewed       SweepOutcome = "RENEWED"
	SweepExpired       SweepOutcome = "EXPIRED"
	SweepRenewalNotice SweepOutcome = "RENEWAL_NOTICE"
)

// Contract is an agreement with an active supplier
type Contract struct {
	shared.TenantAggregateRoot
	Number              string
	SupplierID          uuid.UUID
	SupplierName        string
	Title               string
	Description         string
	Value               decimal.Decimal
	Currency            string
	StartDate           time.Time
	EndDate             time.Time
	AutoRenew           bool
	RenewalNoticeDays   int
	OwnerID             uuid.UUID
	Status              Status
	DocumentKey         string
	RenewalNoticeSentAt *time.Time
	ActivatedAt         *time.Time
	TerminatedAt        *time.Time
	TerminationReason   string
}

// Terms holds the editable commercial terms of a contract
type Terms struct {
	Title             string
	Description       string
	Value             decimal.Decimal
	Currency          string
	StartDate         time.Time
	EndDate           time.Time
	AutoRenew         bool
	RenewalNoticeDays int
}

// NewContract creates a draft contract for an active supplier
func NewContract(tenantID uuid.UUID, number string, supplierID uuid.UUID, supplierName string, ownerID uuid.UUID, terms Terms) (*Contract, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier is required")
	}
	c := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		OwnerID:             ownerID,
		Status:              StatusDraft,
	}
	if err := c.applyTerms(terms); err != nil {
		return nil, err
	}
	c.SetCreatedBy(ownerID)
	c.AddDomainEvent(NewContractEvent(EventTypeCreated, c, ""))
	return c, nil
}

// UpdateTerms edits a draft contract
func (c *Contract) UpdateTerms(terms Terms) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be edited")
	}
	if err := c.applyTerms(terms); err != nil {
		return err
	}
	c.Touch()
	c.AddDomainEvent(NewContractEvent(EventTypeUpdated, c, ""))
	return nil
}

// Activate puts a draft contract into force
func (c *Contract) Activate() error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot activate contract in %s status", c.Status))
	}
	now := shared.Now()
	c.Status = StatusActive
	c.ActivatedAt = &now
	c.Touch()
	c.AddDomainEvent(NewContractEvent(EventTypeActivated, c, ""))
	return nil
}

// Terminate ends an active contract early
func (c *Contract) Terminate(reason string) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot terminate contract in %s status", c.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A termination reason is required")
	}
	now := shared.Now()
	c.Status = StatusTerminated
	c.TerminatedAt = &now
	c.TerminationReason = strings.TrimSpace(reason)
	c.Touch()
	c.AddDomainEvent(NewContractEvent(EventTypeTerminated, c, c.TerminationReason))
	return nil
}

// Renew extends an active or expired contract to a later end date
func (c *Contract) Renew(newEndDate time.Time, newValue *decimal.Decimal) error {
	if c.Status != StatusActive && c.Status != StatusExpired {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot renew contract in %s status", c.Status))
	}
	if !newEndDate.After(c.EndDate) {
		return shared.NewDomainError("INVALID_DATES", "New end date must be after the current end date")
	}
	if newValue != nil {
		if newValue.IsNegative() {
			return shared.NewDomainError("INVALID_VALUE", "Contract value cannot be negative")
		}
		c.Value = *newValue
	}
	c.EndDate = newEndDate
	c.Status = StatusActive
	c.RenewalNoticeSentAt = nil
	c.Touch()
	c.AddDomainEvent(NewContractEvent(EventTypeRenewed, c, ""))
	return nil
}

// AttachDocument links the signed contract file in object storage
func (c *Contract) AttachDocument(key string) error {
	if c.Status == StatusTerminated {
		return shared.NewDomainError("INVALID_STATE", "Cannot attach a document to a terminated contract")
	}
	if !strings.HasPrefix(key, DocumentPrefix(c.TenantID, c.ID)) || strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document key does not belong to this contract")
	}
	c.DocumentKey = key
	c.Touch()
	return nil
}

// Term returns the length of the contract period
func (c *Contract) Term() time.Duration {
	return c.EndDate.Sub(c.StartDate)
}

// DaysUntilEnd returns whole days remaining until the end date
func (c *Contract) DaysUntilEnd(now time.Time) int {
	return int(c.EndDate.Sub(now).Hours() / 24)
}

// Sweep applies time-based changes: past the end date the contract
// auto-renews for another term or expires; inside the notice window the
// owner is due a renewal notice.
func (c *Contract) Sweep(now time.Time) SweepOutcome {
	if c.Status != StatusActive {
		return SweepNone
	}
	if now.After(c.EndDate) {
		if c.AutoRenew {
			term := c.Term()
			if term <= 0 {
				term = 365 * 24 * time.Hour
			}
			c.StartDate = c.EndDate
			for !c.EndDate.After(now) {
				c.EndDate = c.EndDate.Add(term)
			}
			c.RenewalNoticeSentAt = nil
			c.Touch()
			c.AddDomainEvent(NewContractEvent(EventTypeRenewed, c, "auto-renewed"))
			return SweepRenewed
		}
		c.Status = StatusExpired
		c.Touch()
		c.AddDomainEvent(NewContractEvent(EventTypeExpired, c, ""))
		return SweepExpired
	}
	if c.RenewalNoticeSentAt == nil && c.EndDate.Sub(now) <= time.Duration(c.RenewalNoticeDays)*24*time.Hour {
		c.RenewalNoticeSentAt = &now
		c.Touch()
		c.AddDomainEvent(NewContractEvent(EventTypeRenewalDue, c, ""))
		return SweepRenewalNotice
	}
	return SweepNone
}

// DocumentPrefix is the object key prefix for contract attachments
func DocumentPrefix(tenantID, contractID uuid.UUID) string {
	return "contracts/" + tenantID.String() + "/" + contractID.String() + "/"
}

func (c *Contract) applyTerms(t Terms) error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Contract title is required")
	}
	if t.Value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Contract value cannot be negative")
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() || !t.EndDate.After(t.StartDate) {
		return shared.NewDomainError("INVALID_DATES", "End date must be after start date")
	}
	if t.RenewalNoticeDays < 0 {
		return shared.NewDomainError("INVALID_NOTICE", "Renewal notice days cannot be negative")
	}
	notice := t.RenewalNoticeDays
	if notice == 0 {
		notice = DefaultRenewalNoticeDays
	}
	currency := strings.ToUpper(strings.TrimSpace(t.Currency))
	if currency == "" {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency is required")
	}
	c.Title = title
	c.Description = strings.TrimSpace(t.Description)
	c.Value = t.Value
	c.Currency = currency
	c.StartDate = t.StartDate
	c.EndDate = t.EndDate
	c.AutoRenew = t.AutoRenew
	c.RenewalNoticeDays = notice
	return nil
}
