package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeContract is the aggregate type for contracts
const AggregateTypeContract = "Contract"

// Contract event types
const (
	EventTypeCreated    = "ContractCreated"
	EventTypeUpdated    = "ContractUpdated"
	EventTypeActivated  = "ContractActivated"
	EventTypeTerminated = "ContractTerminated"
	EventTypeRenewed    = "ContractRenewed"
	EventTypeExpired    = "ContractExpired"
	EventTypeRenewalDue = "ContractRenewalDue"
)

// AllEventTypes lists every contract event type
func AllEventTypes() []string {
	return []string{
		EventTypeCreated, EventTypeUpdated, EventTypeActivated, EventTypeTerminated,
		EventTypeRenewed, EventTypeExpired, EventTypeRenewalDue,
	}
}

// ContractEvent carries contract state at the time of a change
type ContractEvent struct {
	shared.BaseDomainEvent
	Number       string          `json:"number"`
	Title        string          `json:"title"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Status       Status          `json:"status"`
	Value        decimal.Decimal `json:"value"`
	Currency     string          `json:"currency"`
	EndDate      time.Time       `json:"end_date"`
	AutoRenew    bool            `json:"auto_renew"`
	Note         string          `json:"note,omitempty"`
}

// NewContractEvent creates a contract event of the given type
func NewContractEvent(eventType string, c *Contract, note string) *ContractEvent {
	return &ContractEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeContract, c.ID, c.TenantID),
		Number:          c.Number,
		Title:           c.Title,
		SupplierID:      c.SupplierID,
		SupplierName:    c.SupplierName,
		OwnerID:         c.OwnerID,
		Status:          c.Status,
		Value:           c.Value,
		Currency:        c.Currency,
		EndDate:         c.EndDate,
		AutoRenew:       c.AutoRenew,
		Note:            note,
	}
}
