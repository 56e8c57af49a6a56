package onboarding

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// AggregateTypeOnboarding is the aggregate type for onboarding requests
const AggregateTypeOnboarding = "OnboardingRequest"

// Onboarding event types
const (
	EventTypeInitiated           = "OnboardingInitiated"
	EventTypeManagerApproved     = "OnboardingManagerApproved"
	EventTypeProcurementApproved = "OnboardingProcurementApproved"
	EventTypeInvitationReissued  = "OnboardingInvitationReissued"
	EventTypeDocumentsSubmitted  = "OnboardingDocumentsSubmitted"
	EventTypeReviewStarted       = "OnboardingReviewStarted"
	EventTypeRevisionRequested   = "OnboardingRevisionRequested"
	EventTypeApproved            = "OnboardingApproved"
	EventTypeRejected            = "OnboardingRejected"
	EventTypeCancelled           = "OnboardingCancelled"
)

var actionEventTypes = map[Action]string{
	ActionInitiated:           EventTypeInitiated,
	ActionManagerApproved:     EventTypeManagerApproved,
	ActionManagerRejected:     EventTypeRejected,
	ActionProcurementApproved: EventTypeProcurementApproved,
	ActionProcurementRejected: EventTypeRejected,
	ActionInvitationResent:    EventTypeInvitationReissued,
	ActionDocumentsSubmitted:  EventTypeDocumentsSubmitted,
	ActionReviewStarted:       EventTypeReviewStarted,
	ActionRevisionRequested:   EventTypeRevisionRequested,
	ActionApproved:            EventTypeApproved,
	ActionRejected:            EventTypeRejected,
	ActionCancelled:           EventTypeCancelled,
}

// AllEventTypes lists every onboarding event type
func AllEventTypes() []string {
	return []string{
		EventTypeInitiated, EventTypeManagerApproved, EventTypeProcurementApproved,
		EventTypeInvitationReissued, EventTypeDocumentsSubmitted, EventTypeReviewStarted,
		EventTypeRevisionRequested, EventTypeApproved, EventTypeRejected, EventTypeCancelled,
	}
}

// StatusChangedEvent is published for every workflow step. InvitationToken is
// only set when a new portal link was issued and is never serialized.
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	RequestNumber   string     `json:"request_number"`
	Action          Action     `json:"action"`
	FromStatus      Status     `json:"from_status"`
	ToStatus        Status     `json:"to_status"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	ActorName       string     `json:"actor_name"`
	Note            string     `json:"note,omitempty"`
	SupplierID      uuid.UUID  `json:"supplier_id"`
	SupplierName    string     `json:"supplier_name"`
	SupplierEmail   string     `json:"supplier_email"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	ManagerID       uuid.UUID  `json:"manager_id"`
	InvitationToken string     `json:"-"`
}

// NewStatusChangedEvent creates the event for a workflow step
func NewStatusChangedEvent(r *Request, action Action, from Status, actor Actor, note, token string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(actionEventTypes[action], AggregateTypeOnboarding, r.ID, r.TenantID),
		RequestNumber:   r.RequestNumber,
		Action:          action,
		FromStatus:      from,
		ToStatus:        r.Status,
		ActorID:         actor.ID,
		ActorName:       actor.Name,
		Note:            note,
		SupplierID:      r.SupplierID,
		SupplierName:    r.SupplierName,
		SupplierEmail:   r.SupplierEmail,
		RequesterID:     r.RequesterID,
		ManagerID:       r.ManagerID,
		InvitationToken: token,
	}
}
