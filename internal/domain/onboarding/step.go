package onboarding

import (
	"time"

	"github.com/google/uuid"
)

// Action names a recorded step in an onboarding request's history
type Action string

const (
	ActionInitiated           Action = "INITIATED"
	ActionManagerApproved     Action = "MANAGER_APPROVED"
	ActionManagerRejected     Action = "MANAGER_REJECTED"
	ActionProcurementApproved Action = "PROCUREMENT_APPROVED"
	ActionProcurementRejected Action = "PROCUREMENT_REJECTED"
	ActionInvitationResent    Action = "INVITATION_RESENT"
	ActionDocumentsSubmitted  Action = "DOCUMENTS_SUBMITTED"
	ActionReviewStarted       Action = "REVIEW_STARTED"
	ActionRevisionRequested   Action = "REVISION_REQUESTED"
	ActionApproved            Action = "APPROVED"
	ActionRejected            Action = "REJECTED"
	ActionCancelled           Action = "CANCELLED"
	ActionReminderSent        Action = "REMINDER_SENT"
	ActionEscalated           Action = "ESCALATED"
)

// ActorType identifies who performed a step
type ActorType string

const (
	ActorUser     ActorType = "USER"
	ActorSupplier ActorType = "SUPPLIER"
	ActorSystem   ActorType = "SYSTEM"
)

// Actor is the party acting on a request
type Actor struct {
	ID   *uuid.UUID
	Type ActorType
	Name string
}

// UserActor returns an actor for an authenticated user
func UserActor(id uuid.UUID, name string) Actor {
	return Actor{ID: &id, Type: ActorUser, Name: name}
}

// SupplierActor returns an actor for the supplier acting through the portal
func SupplierActor(name string) Actor {
	return Actor{Type: ActorSupplier, Name: name}
}

// SystemActor returns the actor used by scheduled jobs
func SystemActor() Actor {
	return Actor{Type: ActorSystem, Name: "system"}
}

// Step is one entry of the audit trail
type Step struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	Action     Action
	FromStatus Status
	ToStatus   Status
	ActorID    *uuid.UUID
	ActorType  ActorType
	ActorName  string
	Note       string
	At         time.Time
}
