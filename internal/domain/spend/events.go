package spend

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeSpend is the aggregate type for spend records
const AggregateTypeSpend = "SpendRecord"

// Spend event types
const (
	EventTypeRecorded = "SpendRecorded"
	EventTypeDeleted  = "SpendDeleted"
)

// RecordedEvent is published when spend is recorded
type RecordedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID       `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
	Source     Source          `json:"source"`
}

// NewRecordedEvent creates a RecordedEvent
func NewRecordedEvent(r *Record) *RecordedEvent {
	return &RecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecorded, AggregateTypeSpend, r.ID, r.TenantID),
		SupplierID:      r.SupplierID,
		Amount:          r.Amount,
		Source:          r.Source,
	}
}

// DeletedEvent is published when a spend record is removed
type DeletedEvent struct {
	shared.BaseDomainEvent
}

// NewDeletedEvent creates a DeletedEvent
func NewDeletedEvent(r *Record) *DeletedEvent {
	return &DeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeleted, AggregateTypeSpend, r.ID, r.TenantID),
	}
}
