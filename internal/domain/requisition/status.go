package requisition

// Status represents the status of a requisition
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusOrdered         Status = "ORDERED"
)

// AllStatuses lists every requisition status
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusCancelled, StatusOrdered}
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusCancelled, StatusOrdered:
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
		return target == StatusPendingApproval || target == StatusCancelled
	case StatusPendingApproval:
		return target == StatusApproved || target == StatusRejected || target == StatusCancelled
	case StatusApproved:
		return target == StatusOrdered
	case StatusRejected, StatusCancelled, StatusOrdered:
		return false // Terminal states
	}
	return false
}

// ApproverRole identifies who decides an approval step
type ApproverRole string

const (
	ApproverManager     ApproverRole = "MANAGER"
	ApproverProcurement ApproverRole = "PROCUREMENT"
	ApproverFinance     ApproverRole = "FINANCE"
)

// StepStatus is the state of one approval step
type StepStatus string

const (
	StepWaiting  StepStatus = "WAITING"
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"
	StepRejected StepStatus = "REJECTED"
	StepSkipped  StepStatus = "SKIPPED"
)
