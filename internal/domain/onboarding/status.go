package onboarding

// Status is the stage of an onboarding request
type Status string

const (
	StatusPendingManagerApproval     Status = "PENDING_MANAGER_APPROVAL"
	StatusPendingProcurementApproval Status = "PENDING_PROCUREMENT_APPROVAL"
	StatusAwaitingDocuments          Status = "AWAITING_DOCUMENTS"
	StatusDocumentsSubmitted         Status = "DOCUMENTS_SUBMITTED"
	StatusUnderReview                Status = "UNDER_REVIEW"
	StatusRevisionRequested          Status = "REVISION_REQUESTED"
	StatusApproved                   Status = "APPROVED"
	StatusRejected                   Status = "REJECTED"
	StatusCancelled                  Status = "CANCELLED"
)

// AllStatuses lists every status in workflow order
func AllStatuses() []Status {
	return []Status{
		StatusPendingManagerApproval,
		StatusPendingProcurementApproval,
		StatusAwaitingDocuments,
		StatusDocumentsSubmitted,
		StatusUnderReview,
		StatusRevisionRequested,
		StatusApproved,
		StatusRejected,
		StatusCancelled,
	}
}

// OpenStatuses lists the non-terminal statuses
func OpenStatuses() []Status {
	return []Status{
		StatusPendingManagerApproval,
		StatusPendingProcurementApproval,
		StatusAwaitingDocuments,
		StatusDocumentsSubmitted,
		StatusUnderReview,
		StatusRevisionRequested,
	}
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingManagerApproval, StatusPendingProcurementApproval, StatusAwaitingDocuments,
		StatusDocumentsSubmitted, StatusUnderReview, StatusRevisionRequested,
		StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// AwaitsSupplier reports whether the supplier is expected to act
func (s Status) AwaitsSupplier() bool {
	return s == StatusAwaitingDocuments || s == StatusRevisionRequested
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingManagerApproval:
		return target == StatusPendingProcurementApproval || target == StatusRejected || target == StatusCancelled
	case StatusPendingProcurementApproval:
		return target == StatusAwaitingDocuments || target == StatusRejected || target == StatusCancelled
	case StatusAwaitingDocuments:
		return target == StatusDocumentsSubmitted || target == StatusCancelled
	case StatusDocumentsSubmitted:
		return target == StatusUnderReview || target == StatusCancelled
	case StatusUnderReview:
		return target == StatusApproved || target == StatusRevisionRequested || target == StatusRejected
	case StatusRevisionRequested:
		return target == StatusDocumentsSubmitted || target == StatusCancelled
	case StatusApproved, StatusRejected, StatusCancelled:
		return false // Terminal states
	}
	return false
}
