package supplier

import "github.com/procurement/backend/internal/domain/shared"

// AggregateTypeSupplier is the aggregate type for suppliers
const AggregateTypeSupplier = "Supplier"

// Supplier event types
const (
	EventTypeSupplierCreated       = "SupplierCreated"
	EventTypeSupplierUpdated       = "SupplierUpdated"
	EventTypeSupplierStatusChanged = "SupplierStatusChanged"
)

// SupplierCreatedEvent is published when a supplier record is created
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, AggregateTypeSupplier, s.ID, s.TenantID),
		Name:            s.Name,
	}
}

// SupplierUpdatedEvent is published when supplier details change
type SupplierUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewSupplierUpdatedEvent creates a new SupplierUpdatedEvent
func NewSupplierUpdatedEvent(s *Supplier) *SupplierUpdatedEvent {
	return &SupplierUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierUpdated, AggregateTypeSupplier, s.ID, s.TenantID),
		Name:            s.Name,
	}
}

// SupplierStatusChangedEvent is published on every status change
type SupplierStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// NewSupplierStatusChangedEvent creates a new SupplierStatusChangedEvent
func NewSupplierStatusChangedEvent(s *Supplier, old Status) *SupplierStatusChangedEvent {
	return &SupplierStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierStatusChanged, AggregateTypeSupplier, s.ID, s.TenantID),
		OldStatus:       old,
		NewStatus:       s.Status,
	}
}
