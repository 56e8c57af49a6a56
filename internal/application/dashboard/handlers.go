package dashboard

import (
	"context"

	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/evaluation"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/spend"
)

// InvalidationHandler drops a tenant's cached views whenever data behind
// them changes
type InvalidationHandler struct {
	svc *Service
}

// NewInvalidationHandler creates the handler
func NewInvalidationHandler(svc *Service) *InvalidationHandler {
	return &InvalidationHandler{svc: svc}
}

// Handle implements shared.EventHandler
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.svc.Invalidate(ctx, event.TenantID())
}

// EventTypes implements shared.EventHandler
func (h *InvalidationHandler) EventTypes() []string {
	types := append([]string{}, onboarding.AllEventTypes()...)
	types = append(types, requisition.AllEventTypes()...)
	types = append(types, contract.AllEventTypes()...)
	types = append(types, spend.EventTypeRecorded, spend.EventTypeDeleted)
	return append(types, evaluation.EventTypeSubmitted, evaluation.EventTypeRevised)
}
