package approval

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/infrastructure/auth"
)

// Link is an issued approval link
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Links issues emailed approve/reject links bound to a workflow stage
type Links struct {
	tokens  *auth.ActionTokenService
	baseURL string
}

// NewLinks creates a link issuer. baseURL is the public application URL.
func NewLinks(tokens *auth.ActionTokenService, baseURL string) *Links {
	return &Links{tokens: tokens, baseURL: strings.TrimRight(baseURL, "/")}
}

// ForOnboarding issues a link for the request's current status
func (l *Links) ForOnboarding(r *onboarding.Request, approverID uuid.UUID) (Link, error) {
	kind := auth.ActionOnboardingProcurement
	if r.Status == onboarding.StatusPendingManagerApproval {
		kind = auth.ActionOnboardingManager
	}
	return l.issue(auth.ActionTokenInput{
		TenantID:   r.TenantID,
		ApproverID: approverID,
		Kind:       kind,
		Ref:        r.ID,
		Stage:      OnboardingStage(r),
	})
}

// ForRequisition issues a link for the requisition's current step
func (l *Links) ForRequisition(r *requisition.Requisition, approverID uuid.UUID) (Link, error) {
	return l.issue(auth.ActionTokenInput{
		TenantID:   r.TenantID,
		ApproverID: approverID,
		Kind:       auth.ActionRequisitionStep,
		Ref:        r.ID,
		Stage:      RequisitionStage(r),
	})
}

func (l *Links) issue(in auth.ActionTokenInput) (Link, error) {
	token, err := l.tokens.Issue(in)
	if err != nil {
		return Link{}, err
	}
	return Link{
		URL:       l.baseURL + "/approvals/" + token,
		ExpiresAt: time.Now().Add(l.tokens.TTL()),
	}, nil
}

// OnboardingStage is the stage value an onboarding link is bound to
func OnboardingStage(r *onboarding.Request) string {
	return r.Status.String()
}

// RequisitionStage is the sequence of the pending step, or the status once
// no step is pending
func RequisitionStage(r *requisition.Requisition) string {
	if step := r.CurrentStep(); step != nil {
		return strconv.Itoa(step.Sequence)
	}
	return r.Status.String()
}
