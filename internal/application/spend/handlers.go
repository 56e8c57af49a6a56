package spend

import (
	"context"

	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
)

// OrderedHandler books spend when a requisition is ordered
type OrderedHandler struct {
	svc *Service
}

// NewOrderedHandler creates the handler
func NewOrderedHandler(svc *Service) *OrderedHandler {
	return &OrderedHandler{svc: svc}
}

// Handle implements shared.EventHandler
func (h *OrderedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*requisition.RequisitionEvent)
	if !ok {
		return nil
	}
	return h.svc.RecordFromRequisition(ctx, e)
}

// EventTypes implements shared.EventHandler
func (h *OrderedHandler) EventTypes() []string {
	return []string{requisition.EventTypeOrdered}
}
