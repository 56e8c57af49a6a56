package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/approval"
	"github.com/procurement/backend/internal/domain/contract"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/domain/supplier"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// TimeLayout is how deadlines appear in email
const TimeLayout = "2 Jan 2006 15:04 MST"

// Directory resolves email recipients
type Directory interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error)
	FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error)
}

// RequestLookup loads onboarding requests
type RequestLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*onboarding.Request, error)
}

// RequisitionLookup loads requisitions
type RequisitionLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*requisition.Requisition, error)
}

// SupplierLookup loads suppliers
type SupplierLookup interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*supplier.Supplier, error)
}

// URLs are the public entry points linked from email
type URLs struct {
	BaseURL   string
	PortalURL string
}

// PortalLink is the supplier portal address for an invitation token
func (u URLs) PortalLink(token string) string {
	return strings.TrimRight(u.PortalURL, "/") + "/onboarding/" + token
}

// AppLink is an address inside the web app
func (u URLs) AppLink(path string) string {
	return strings.TrimRight(u.BaseURL, "/") + path
}

// Recipients resolves who is responsible for what. It is shared by the event
// handlers and the reminder sweep.
type Recipients struct {
	users Directory
}

// NewRecipients creates a Recipients resolver
func NewRecipients(users Directory) *Recipients {
	return &Recipients{users: users}
}

// User returns an active user, or nil when the user is gone or inactive
func (r *Recipients) User(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*identity.User, error) {
	u, err := r.users.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, nil
	}
	return u, nil
}

// Role returns the active users holding a role
func (r *Recipients) Role(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	return r.users.FindActiveByRole(ctx, tenantID, role)
}

// ManagerOrAdmins returns the active manager of the user, falling back to the
// admins when there is none
func (r *Recipients) ManagerOrAdmins(ctx context.Context, tenantID, userID uuid.UUID) ([]*identity.User, error) {
	u, err := r.User(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if u != nil && u.ManagerID != nil {
		mgr, err := r.User(ctx, tenantID, *u.ManagerID)
		if err != nil {
			return nil, err
		}
		if mgr != nil {
			return []*identity.User{mgr}, nil
		}
	}
	return r.Role(ctx, tenantID, identity.RoleAdmin)
}

// StepPool returns the users who may decide a requisition step: the named
// approver when set, otherwise everyone in the role pool
func (r *Recipients) StepPool(ctx context.Context, tenantID uuid.UUID, role requisition.ApproverRole, approverID *uuid.UUID) ([]*identity.User, error) {
	if approverID != nil {
		u, err := r.User(ctx, tenantID, *approverID)
		if err != nil || u == nil {
			return nil, err
		}
		return []*identity.User{u}, nil
	}
	switch role {
	case requisition.ApproverProcurement:
		return r.Role(ctx, tenantID, identity.RoleProcurement)
	case requisition.ApproverFinance:
		return r.Role(ctx, tenantID, identity.RoleFinance)
	}
	return nil, nil
}

// OnboardingHandler emails the people each onboarding step waits on
type OnboardingHandler struct {
	notifier   *Notifier
	recipients *Recipients
	requests   RequestLookup
	suppliers  SupplierLookup
	links      *approval.Links
	urls       URLs
	logger     *zap.Logger
}

// NewOnboardingHandler creates the handler
func NewOnboardingHandler(notifier *Notifier, recipients *Recipients, requests RequestLookup, suppliers SupplierLookup, links *approval.Links, urls URLs, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		notifier:   notifier,
		recipients: recipients,
		requests:   requests,
		suppliers:  suppliers,
		links:      links,
		urls:       urls,
		logger:     logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *OnboardingHandler) EventTypes() []string {
	return []string{
		onboarding.EventTypeInitiated,
		onboarding.EventTypeManagerApproved,
		onboarding.EventTypeProcurementApproved,
		onboarding.EventTypeInvitationReissued,
		onboarding.EventTypeDocumentsSubmitted,
		onboarding.EventTypeRevisionRequested,
		onboarding.EventTypeApproved,
		onboarding.EventTypeRejected,
	}
}

// Handle implements shared.EventHandler. Delivery failures are recorded by
// the notifier and do not fail the handler.
func (h *OnboardingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*onboarding.StatusChangedEvent)
	if !ok {
		return nil
	}
	r, err := h.requests.FindByID(ctx, e.TenantID(), e.AggregateID())
	if err != nil {
		return fmt.Errorf("load onboarding request %s: %w", e.RequestNumber, err)
	}

	if r.Status != e.ToStatus {
		// The request moved on before the event was delivered.
		return nil
	}

	switch e.EventType() {
	case onboarding.EventTypeInitiated:
		return h.approvalRequest(ctx, r, []uuid.UUID{r.ManagerID})
	case onboarding.EventTypeManagerApproved:
		pool, err := h.recipients.Role(ctx, r.TenantID, identity.RoleProcurement)
		if err != nil {
			return err
		}
		return h.approvalRequest(ctx, r, userIDs(pool))
	case onboarding.EventTypeProcurementApproved, onboarding.EventTypeInvitationReissued:
		return h.supplierLink(ctx, r, mail.TemplateSupplierInvitation, e.InvitationToken)
	case onboarding.EventTypeRevisionRequested:
		return h.supplierLink(ctx, r, mail.TemplateRevisionRequested, e.InvitationToken)
	case onboarding.EventTypeDocumentsSubmitted:
		return h.documentsSubmitted(ctx, r)
	case onboarding.EventTypeApproved:
		return h.approved(ctx, r)
	case onboarding.EventTypeRejected:
		return h.rejected(ctx, r, e.FromStatus)
	}
	return nil
}

func (h *OnboardingHandler) approvalRequest(ctx context.Context, r *onboarding.Request, approverIDs []uuid.UUID) error {
	requester, err := h.recipients.User(ctx, r.TenantID, r.RequesterID)
	if err != nil {
		return err
	}
	requesterName := ""
	if requester != nil {
		requesterName = requester.Name()
	}

	var errs []error
	for _, id := range approverIDs {
		approver, err := h.recipients.User(ctx, r.TenantID, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if approver == nil {
			logger.Enrich(ctx, h.logger).Warn("Onboarding approver unavailable",
				zap.String("request_number", r.RequestNumber), zap.String("approver_id", id.String()))
			continue
		}
		link, err := h.links.ForOnboarding(r, approver.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data := mail.Data{
			"RequestNumber": r.RequestNumber,
			"SupplierName":  r.SupplierName,
			"Category":      r.Category,
			"RequesterName": requesterName,
			"Justification": r.Justification,
			"ActionURL":     link.URL,
			"ExpiresAt":     link.ExpiresAt.Format(TimeLayout),
		}
		if r.EstimatedAnnualSpend.IsPositive() {
			data["EstimatedSpend"] = r.EstimatedAnnualSpend.StringFixed(2) + " " + r.Currency
		}
		_ = h.notifier.Notify(ctx, h.envelope(r, approver.Email, approver.Name(), mail.TemplateApprovalRequest, data))
	}
	return errors.Join(errs...)
}

func (h *OnboardingHandler) supplierLink(ctx context.Context, r *onboarding.Request, template, token string) error {
	if token == "" || r.VerifyInvitation(token, time.Now()) != nil {
		// A newer invitation replaced this one.
		return nil
	}
	data := mail.Data{
		"SupplierName": r.SupplierName,
		"PortalURL":    h.urls.PortalLink(token),
		"ExpiresAt":    formatTime(r.InvitationExpiresAt),
	}
	if template == mail.TemplateSupplierInvitation {
		data["RequiredDocuments"] = r.RequiredDocuments
	} else {
		data["Note"] = r.RevisionNote
		data["DocumentTypes"] = r.RequestedDocuments
	}
	_ = h.notifier.Notify(ctx, h.envelope(r, r.SupplierEmail, h.contactName(ctx, r), template, data))
	return nil
}

func (h *OnboardingHandler) documentsSubmitted(ctx context.Context, r *onboarding.Request) error {
	var to []*identity.User
	if r.ReviewerID != nil {
		u, err := h.recipients.User(ctx, r.TenantID, *r.ReviewerID)
		if err != nil {
			return err
		}
		if u != nil {
			to = append(to, u)
		}
	}
	if len(to) == 0 {
		pool, err := h.recipients.Role(ctx, r.TenantID, identity.RoleProcurement)
		if err != nil {
			return err
		}
		to = pool
	}
	for _, u := range to {
		_ = h.notifier.Notify(ctx, h.envelope(r, u.Email, u.Name(), mail.TemplateDocumentsSubmitted, mail.Data{
			"RequestNumber": r.RequestNumber,
			"SupplierName":  r.SupplierName,
			"DocumentCount": len(r.CountingDocuments()),
			"ReviewURL":     h.urls.AppLink("/onboarding/" + r.ID.String()),
		}))
	}
	return nil
}

func (h *OnboardingHandler) approved(ctx context.Context, r *onboarding.Request) error {
	sup, err := h.suppliers.FindByID(ctx, r.TenantID, r.SupplierID)
	if err != nil {
		return err
	}
	requester, err := h.recipients.User(ctx, r.TenantID, r.RequesterID)
	if err != nil {
		return err
	}
	if requester != nil {
		_ = h.notifier.Notify(ctx, h.envelope(r, requester.Email, requester.Name(), mail.TemplateOnboardingApproved, mail.Data{
			"RequestNumber": r.RequestNumber,
			"SupplierName":  r.SupplierName,
			"SupplierCode":  sup.Code,
		}))
	}
	_ = h.notifier.Notify(ctx, h.envelope(r, r.SupplierEmail, sup.ContactName, mail.TemplateSupplierWelcome, mail.Data{
		"SupplierName": sup.Name,
		"SupplierCode": sup.Code,
	}))
	return nil
}

func (h *OnboardingHandler) rejected(ctx context.Context, r *onboarding.Request, from onboarding.Status) error {
	requester, err := h.recipients.User(ctx, r.TenantID, r.RequesterID)
	if err != nil {
		return err
	}
	if requester != nil {
		_ = h.notifier.Notify(ctx, h.envelope(r, requester.Email, requester.Name(), mail.TemplateOnboardingRejected, mail.Data{
			"RequestNumber": r.RequestNumber,
			"SupplierName":  r.SupplierName,
			"Reason":        r.RejectionReason,
		}))
	}
	// Only a supplier that has already submitted documents hears back.
	if from == onboarding.StatusUnderReview {
		_ = h.notifier.Notify(ctx, h.envelope(r, r.SupplierEmail, h.contactName(ctx, r), mail.TemplateSupplierDeclined, mail.Data{
			"SupplierName": r.SupplierName,
			"Reason":       r.RejectionReason,
		}))
	}
	return nil
}

func (h *OnboardingHandler) contactName(ctx context.Context, r *onboarding.Request) string {
	sup, err := h.suppliers.FindByID(ctx, r.TenantID, r.SupplierID)
	if err != nil || sup.ContactName == "" {
		return r.SupplierName
	}
	return sup.ContactName
}

func (h *OnboardingHandler) envelope(r *onboarding.Request, to, name, template string, data mail.Data) Envelope {
	id := r.ID
	return Envelope{
		TenantID:      r.TenantID,
		To:            to,
		RecipientName: name,
		Template:      template,
		Data:          data,
		RelatedType:   RelatedOnboarding,
		RelatedID:     &id,
	}
}

// RequisitionHandler emails approvers and requesters as a requisition moves
// through its approval chain
type RequisitionHandler struct {
	notifier     *Notifier
	recipients   *Recipients
	requisitions RequisitionLookup
	links        *approval.Links
	logger       *zap.Logger
}

// NewRequisitionHandler creates the handler
func NewRequisitionHandler(notifier *Notifier, recipients *Recipients, requisitions RequisitionLookup, links *approval.Links, logger *zap.Logger) *RequisitionHandler {
	return &RequisitionHandler{
		notifier:     notifier,
		recipients:   recipients,
		requisitions: requisitions,
		links:        links,
		logger:       logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *RequisitionHandler) EventTypes() []string {
	return []string{
		requisition.EventTypeStepActivated,
		requisition.EventTypeApproved,
		requisition.EventTypeRejected,
	}
}

// Handle implements shared.EventHandler
func (h *RequisitionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*requisition.RequisitionEvent)
	if !ok {
		return nil
	}
	switch e.EventType() {
	case requisition.EventTypeStepActivated:
		return h.stepActivated(ctx, e)
	case requisition.EventTypeApproved:
		return h.toRequester(ctx, e, mail.TemplateRequisitionApproved, mail.Data{
			"Number":      e.Number,
			"Title":       e.Title,
			"TotalAmount": e.TotalAmount.StringFixed(2),
			"Currency":    e.Currency,
		})
	case requisition.EventTypeRejected:
		return h.toRequester(ctx, e, mail.TemplateRequisitionRejected, mail.Data{
			"Number":      e.Number,
			"Title":       e.Title,
			"DeciderName": e.DeciderName,
			"Reason":      e.Comment,
		})
	}
	return nil
}

func (h *RequisitionHandler) stepActivated(ctx context.Context, e *requisition.RequisitionEvent) error {
	r, err := h.requisitions.FindByID(ctx, e.TenantID(), e.AggregateID())
	if err != nil {
		return fmt.Errorf("load requisition %s: %w", e.Number, err)
	}
	step := r.CurrentStep()
	if step == nil || step.Sequence != e.StepSequence {
		// The chain moved on before the event was delivered.
		return nil
	}
	pool, err := h.recipients.StepPool(ctx, r.TenantID, step.Role, step.ApproverID)
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		logger.Enrich(ctx, h.logger).Warn("No approver to notify for requisition step",
			zap.String("number", r.Number), zap.String("role", string(step.Role)))
		return nil
	}

	var errs []error
	for _, u := range pool {
		if u.ID == r.RequesterID {
			continue
		}
		link, err := h.links.ForRequisition(r, u.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = h.notifier.Notify(ctx, requisitionEnvelope(r.TenantID, r.ID, u.Email, u.Name(), mail.TemplateRequisitionApprovalRequest, mail.Data{
			"Number":        r.Number,
			"Title":         r.Title,
			"RequesterName": r.RequesterName,
			"TotalAmount":   r.TotalAmount.StringFixed(2),
			"Currency":      r.Currency,
			"SupplierName":  r.SupplierName,
			"StepRole":      string(step.Role),
			"ActionURL":     link.URL,
			"ExpiresAt":     link.ExpiresAt.Format(TimeLayout),
		}))
	}
	return errors.Join(errs...)
}

func (h *RequisitionHandler) toRequester(ctx context.Context, e *requisition.RequisitionEvent, template string, data mail.Data) error {
	u, err := h.recipients.User(ctx, e.TenantID(), e.RequesterID)
	if err != nil || u == nil {
		return err
	}
	_ = h.notifier.Notify(ctx, requisitionEnvelope(e.TenantID(), e.AggregateID(), u.Email, u.Name(), template, data))
	return nil
}

func requisitionEnvelope(tenantID, id uuid.UUID, to, name, template string, data mail.Data) Envelope {
	return Envelope{
		TenantID:      tenantID,
		To:            to,
		RecipientName: name,
		Template:      template,
		Data:          data,
		RelatedType:   RelatedRequisition,
		RelatedID:     &id,
	}
}

// ContractHandler sends renewal notices to contract owners
type ContractHandler struct {
	notifier   *Notifier
	recipients *Recipients
	urls       URLs
}

// NewContractHandler creates the handler
func NewContractHandler(notifier *Notifier, recipients *Recipients, urls URLs) *ContractHandler {
	return &ContractHandler{notifier: notifier, recipients: recipients, urls: urls}
}

// EventTypes implements shared.EventHandler
func (h *ContractHandler) EventTypes() []string {
	return []string{contract.EventTypeRenewalDue}
}

// Handle implements shared.EventHandler. Without an active owner the
// procurement team is notified.
func (h *ContractHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*contract.ContractEvent)
	if !ok {
		return nil
	}
	owner, err := h.recipients.User(ctx, e.TenantID(), e.OwnerID)
	if err != nil {
		return err
	}
	to := []*identity.User{owner}
	if owner == nil {
		if to, err = h.recipients.Role(ctx, e.TenantID(), identity.RoleProcurement); err != nil {
			return err
		}
	}

	id := e.AggregateID()
	for _, u := range to {
		_ = h.notifier.Notify(ctx, Envelope{
			TenantID:      e.TenantID(),
			To:            u.Email,
			RecipientName: u.Name(),
			Template:      mail.TemplateContractRenewalNotice,
			Data: mail.Data{
				"Number":       e.Number,
				"Title":        e.Title,
				"SupplierName": e.SupplierName,
				"EndDate":      e.EndDate.Format("2 Jan 2006"),
				"AutoRenew":    e.AutoRenew,
				"ContractURL":  h.urls.AppLink("/contracts/" + id.String()),
			},
			RelatedType: RelatedContract,
			RelatedID:   &id,
		})
	}
	return nil
}

func userIDs(users []*identity.User) []uuid.UUID {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimeLayout)
}
