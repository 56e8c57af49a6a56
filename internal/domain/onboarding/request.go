package onboarding

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Request tracks one supplier through onboarding. It is the aggregate root
// for the onboarding workflow; every transition appends a Step and restarts
// the reminder clock.
type Request struct {
	shared.TenantAggregateRoot
	RequestNumber        string
	SupplierID           uuid.UUID
	SupplierName         string
	SupplierEmail        string
	Category             string
	RequesterID          uuid.UUID
	ManagerID            uuid.UUID
	ReviewerID           *uuid.UUID
	Justification        string
	EstimatedAnnualSpend decimal.Decimal
	Currency             string
	Status               Status
	Reminder             reminder.Tracker
	InvitationTokenHash  string
	InvitationExpiresAt  *time.Time
	RequiredDocuments    []string
	RevisionNote         string
	RequestedDocuments   []string
	RejectionReason      string
	DecidedAt            *time.Time
	Documents            []Document
	Steps                []Step
}

// NewRequestParams holds the inputs for starting an onboarding request
type NewRequestParams struct {
	TenantID             uuid.UUID
	RequestNumber        string
	SupplierID           uuid.UUID
	SupplierName         string
	SupplierEmail        string
	Category             string
	Requester            Actor
	ManagerID            uuid.UUID
	Justification        string
	EstimatedAnnualSpend decimal.Decimal
	Currency             string
	RequiredDocuments    []string
}

// NewRequest initiates onboarding; the request waits for the requester's manager
func NewRequest(p NewRequestParams) (*Request, error) {
	if p.Requester.ID == nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester is required")
	}
	if p.ManagerID == uuid.Nil {
		return nil, shared.NewDomainError("NO_MANAGER", "Requester has no manager to approve the request")
	}
	if p.ManagerID == *p.Requester.ID {
		return nil, shared.NewDomainError("SELF_APPROVAL", "Requester cannot be their own approver")
	}
	if strings.TrimSpace(p.Justification) == "" {
		return nil, shared.NewDomainError("JUSTIFICATION_REQUIRED", "A business justification is required")
	}
	if p.EstimatedAnnualSpend.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Estimated annual spend cannot be negative")
	}
	if p.SupplierID == uuid.Nil || strings.TrimSpace(p.SupplierEmail) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier and contact email are required")
	}

	now := shared.Now()
	r := &Request{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(p.TenantID),
		RequestNumber:        p.RequestNumber,
		SupplierID:           p.SupplierID,
		SupplierName:         p.SupplierName,
		SupplierEmail:        p.SupplierEmail,
		Category:             p.Category,
		RequesterID:          *p.Requester.ID,
		ManagerID:            p.ManagerID,
		Justification:        strings.TrimSpace(p.Justification),
		EstimatedAnnualSpend: p.EstimatedAnnualSpend,
		Currency:             p.Currency,
		Status:               StatusPendingManagerApproval,
		Reminder:             reminder.NewTracker(now),
		RequiredDocuments:    normalizeTypes(p.RequiredDocuments),
		Documents:            make([]Document, 0),
		Steps:                make([]Step, 0),
	}
	r.SetCreatedBy(*p.Requester.ID)
	r.appendStep(ActionInitiated, "", StatusPendingManagerApproval, p.Requester, r.Justification, now)
	r.AddDomainEvent(NewStatusChangedEvent(r, ActionInitiated, "", p.Requester, r.Justification, ""))
	return r, nil
}

// IsManager reports whether the user is the assigned approving manager
func (r *Request) IsManager(userID uuid.UUID) bool {
	return r.ManagerID == userID
}

// IsRequester reports whether the user raised the request
func (r *Request) IsRequester(userID uuid.UUID) bool {
	return r.RequesterID == userID
}

// ApproveByManager moves the request on to procurement
func (r *Request) ApproveByManager(actor Actor, note string) error {
	if err := r.expect(StatusPendingManagerApproval); err != nil {
		return err
	}
	return r.transition(StatusPendingProcurementApproval, ActionManagerApproved, actor, note, "")
}

// RejectByManager ends the request at the manager stage
func (r *Request) RejectByManager(actor Actor, reason string) error {
	if err := r.expect(StatusPendingManagerApproval); err != nil {
		return err
	}
	return r.reject(ActionManagerRejected, actor, reason)
}

// ApproveByProcurement issues the supplier invitation and returns the raw
// portal token. Only its hash is kept on the request.
func (r *Request) ApproveByProcurement(actor Actor, note string, invitationTTL time.Duration) (string, error) {
	if err := r.expect(StatusPendingProcurementApproval); err != nil {
		return "", err
	}
	token, err := r.issueInvitation(invitationTTL)
	if err != nil {
		return "", err
	}
	if err := r.transition(StatusAwaitingDocuments, ActionProcurementApproved, actor, note, token); err != nil {
		return "", err
	}
	return token, nil
}

// RejectByProcurement ends the request at the procurement stage
func (r *Request) RejectByProcurement(actor Actor, reason string) error {
	if err := r.expect(StatusPendingProcurementApproval); err != nil {
		return err
	}
	return r.reject(ActionProcurementRejected, actor, reason)
}

// ResendInvitation replaces the portal token. Links sent earlier stop working.
func (r *Request) ResendInvitation(actor Actor, invitationTTL time.Duration) (string, error) {
	if !r.Status.AwaitsSupplier() {
		return "", shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resend invitation in %s status", r.Status))
	}
	token, err := r.issueInvitation(invitationTTL)
	if err != nil {
		return "", err
	}
	now := shared.Now()
	r.appendStep(ActionInvitationResent, r.Status, r.Status, actor, "", now)
	r.Touch()
	r.AddDomainEvent(NewStatusChangedEvent(r, ActionInvitationResent, r.Status, actor, "", token))
	return token, nil
}

// VerifyInvitation checks a raw portal token against the stored hash
func (r *Request) VerifyInvitation(rawToken string, now time.Time) error {
	if r.InvitationTokenHash == "" || rawToken == "" {
		return shared.ErrNotFound
	}
	given := HashInvitationToken(rawToken)
	if subtle.ConstantTimeCompare([]byte(given), []byte(r.InvitationTokenHash)) != 1 {
		return shared.ErrNotFound
	}
	if r.InvitationExpiresAt != nil && now.After(*r.InvitationExpiresAt) {
		return shared.NewDomainError("TOKEN_EXPIRED", "This invitation link has expired, ask procurement to resend it")
	}
	return nil
}

// SubmitDocuments records the supplier's submission. Every required document
// type must be covered, and documents named in a revision request must be
// uploaded again.
func (r *Request) SubmitDocuments(actor Actor, docs []DocumentInput) error {
	if !r.Status.CanTransitionTo(StatusDocumentsSubmitted) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, StatusDocumentsSubmitted))
	}
	if len(docs) == 0 {
		return shared.NewDomainError("MISSING_DOCUMENTS", "At least one document must be submitted")
	}
	prefix := StoragePrefix(r.TenantID, r.ID)
	submitted := make(map[string]bool, len(docs))
	for _, d := range docs {
		if err := d.validate(prefix); err != nil {
			return err
		}
		submitted[NormalizeDocumentType(d.DocumentType)] = true
	}

	var missing []string
	for _, t := range r.RequestedDocuments {
		if !submitted[t] {
			missing = append(missing, t)
		}
	}
	for _, t := range r.RequiredDocuments {
		if !submitted[t] && !r.hasCountingDocument(t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		missing = normalizeTypes(missing)
		return shared.NewDomainError("MISSING_DOCUMENTS", "Missing required documents: "+strings.Join(missing, ", "))
	}

	now := shared.Now()
	for i := range r.Documents {
		if submitted[r.Documents[i].DocumentType] && r.Documents[i].Status != DocumentStatusRejected {
			r.Documents[i].Status = DocumentStatusSuperseded
		}
	}
	for _, d := range docs {
		r.Documents = append(r.Documents, Document{
			ID:           uuid.New(),
			RequestID:    r.ID,
			DocumentType: NormalizeDocumentType(d.DocumentType),
			FileName:     strings.TrimSpace(d.FileName),
			StorageKey:   d.StorageKey,
			ContentType:  d.ContentType,
			Status:       DocumentStatusSubmitted,
			UploadedAt:   now,
		})
	}
	r.RequestedDocuments = nil
	return r.transition(StatusDocumentsSubmitted, ActionDocumentsSubmitted, actor, fmt.Sprintf("%d document(s)", len(docs)), "")
}

// StartReview assigns the reviewer and opens the review
func (r *Request) StartReview(actor Actor) error {
	if actor.ID == nil {
		return shared.NewDomainError("INVALID_ACTOR", "A reviewer is required")
	}
	if err := r.expect(StatusDocumentsSubmitted); err != nil {
		return err
	}
	reviewer := *actor.ID
	r.ReviewerID = &reviewer
	return r.transition(StatusUnderReview, ActionReviewStarted, actor, "", "")
}

// RequestRevision sends the submission back to the supplier with a note and
// returns a fresh portal token
func (r *Request) RequestRevision(actor Actor, note string, documentTypes []string, invitationTTL time.Duration) (string, error) {
	if err := r.expect(StatusUnderReview); err != nil {
		return "", err
	}
	if strings.TrimSpace(note) == "" {
		return "", shared.NewDomainError("NOTE_REQUIRED", "A revision note is required")
	}
	types := normalizeTypes(documentTypes)
	for _, t := range types {
		if !r.hasCountingDocument(t) {
			return "", shared.NewDomainError("INVALID_DOCUMENT", "No submitted document of type "+t)
		}
	}
	token, err := r.issueInvitation(invitationTTL)
	if err != nil {
		return "", err
	}
	rejected := make(map[string]bool, len(types))
	for _, t := range types {
		rejected[t] = true
	}
	for i := range r.Documents {
		if rejected[r.Documents[i].DocumentType] && r.Documents[i].Counts() {
			r.Documents[i].Status = DocumentStatusRejected
		}
	}
	r.RevisionNote = strings.TrimSpace(note)
	r.RequestedDocuments = types
	if err := r.transition(StatusRevisionRequested, ActionRevisionRequested, actor, r.RevisionNote, token); err != nil {
		return "", err
	}
	return token, nil
}

// Approve completes onboarding. The caller activates the supplier record.
func (r *Request) Approve(actor Actor, note string) error {
	if err := r.expect(StatusUnderReview); err != nil {
		return err
	}
	for i := range r.Documents {
		if r.Documents[i].Status == DocumentStatusSubmitted {
			r.Documents[i].Status = DocumentStatusAccepted
		}
	}
	r.clearInvitation()
	now := shared.Now()
	r.DecidedAt = &now
	r.RevisionNote = ""
	return r.transition(StatusApproved, ActionApproved, actor, note, "")
}

// Reject ends the request after document review
func (r *Request) Reject(actor Actor, reason string) error {
	if err := r.expect(StatusUnderReview); err != nil {
		return err
	}
	return r.reject(ActionRejected, actor, reason)
}

// Cancel withdraws the request
func (r *Request) Cancel(actor Actor, reason string) error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, StatusCancelled))
	}
	r.clearInvitation()
	now := shared.Now()
	r.DecidedAt = &now
	r.RejectionReason = strings.TrimSpace(reason)
	return r.transition(StatusCancelled, ActionCancelled, actor, reason, "")
}

// RecordReminder books a sent reminder or escalation against the current stage
func (r *Request) RecordReminder(action reminder.Action, note string, now time.Time) {
	var step Action
	switch action {
	case reminder.ActionRemind:
		step = ActionReminderSent
	case reminder.ActionEscalate:
		step = ActionEscalated
	default:
		return
	}
	r.Reminder.Record(action, now)
	r.appendStep(step, r.Status, r.Status, SystemActor(), note, now)
	r.Touch()
}

// CountingDocuments returns the documents that currently satisfy requirements
func (r *Request) CountingDocuments() []Document {
	out := make([]Document, 0, len(r.Documents))
	for _, d := range r.Documents {
		if d.Counts() {
			out = append(out, d)
		}
	}
	return out
}

// FindDocument returns the document with the given ID
func (r *Request) FindDocument(id uuid.UUID) (*Document, bool) {
	for i := range r.Documents {
		if r.Documents[i].ID == id {
			return &r.Documents[i], true
		}
	}
	return nil, false
}

// DaysToDecision returns the days between initiation and the final decision
func (r *Request) DaysToDecision() (float64, bool) {
	if r.DecidedAt == nil {
		return 0, false
	}
	return r.DecidedAt.Sub(r.CreatedAt).Hours() / 24, true
}

func (r *Request) expect(s Status) error {
	if r.Status != s {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Request is %s, expected %s", r.Status, s))
	}
	return nil
}

func (r *Request) reject(action Action, actor Actor, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A rejection reason is required")
	}
	r.clearInvitation()
	now := shared.Now()
	r.DecidedAt = &now
	r.RejectionReason = strings.TrimSpace(reason)
	return r.transition(StatusRejected, action, actor, r.RejectionReason, "")
}

func (r *Request) transition(to Status, action Action, actor Actor, note, token string) error {
	if !r.Status.CanTransitionTo(to) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, to))
	}
	now := shared.Now()
	from := r.Status
	r.Status = to
	r.Reminder.Reset(now)
	r.appendStep(action, from, to, actor, note, now)
	r.Touch()
	r.AddDomainEvent(NewStatusChangedEvent(r, action, from, actor, note, token))
	return nil
}

func (r *Request) appendStep(action Action, from, to Status, actor Actor, note string, at time.Time) {
	r.Steps = append(r.Steps, Step{
		ID:         uuid.New(),
		RequestID:  r.ID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorType:  actor.Type,
		ActorName:  actor.Name,
		Note:       strings.TrimSpace(note),
		At:         at,
	})
}

func (r *Request) issueInvitation(ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", shared.NewDomainError("INVALID_INPUT", "Invitation lifetime must be positive")
	}
	raw, err := newInvitationToken()
	if err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	expires := shared.Now().Add(ttl)
	r.InvitationTokenHash = HashInvitationToken(raw)
	r.InvitationExpiresAt = &expires
	return raw, nil
}

func (r *Request) clearInvitation() {
	r.InvitationTokenHash = ""
	r.InvitationExpiresAt = nil
}

func (r *Request) hasCountingDocument(docType string) bool {
	for _, d := range r.Documents {
		if d.DocumentType == docType && d.Counts() {
			return true
		}
	}
	return false
}

// HashInvitationToken returns the stored form of a portal token
func HashInvitationToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newInvitationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = NormalizeDocumentType(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
