// Package reminder nudges the people pending approvals wait on and escalates
// items that stay stuck.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/approval"
	"github.com/procurement/backend/internal/application/notification"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/onboarding"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/requisition"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/mail"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TenantSource lists the tenants to sweep
type TenantSource interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Sender delivers one email
type Sender interface {
	Notify(ctx context.Context, env notification.Envelope) error
}

// Result summarises one sweep
type Result struct {
	Scanned   int `json:"scanned"`
	Reminded  int `json:"reminded"`
	Escalated int `json:"escalated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (r *Result) add(o Result) {
	r.Scanned += o.Scanned
	r.Reminded += o.Reminded
	r.Escalated += o.Escalated
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

func (r *Result) count(action reminder.Action) {
	if action == reminder.ActionEscalate {
		r.Escalated++
		return
	}
	r.Reminded++
}

// Service runs reminder sweeps
type Service struct {
	tenants       TenantSource
	requests      onboarding.RequestRepository
	requisitions  requisition.RequisitionRepository
	recipients    *notification.Recipients
	sender        Sender
	links         *approval.Links
	urls          notification.URLs
	policy        reminder.Policy
	invitationTTL time.Duration
	metrics       *telemetry.Metrics
	logger        *zap.Logger
}

// Options configures the sweep
type Options struct {
	Policy        reminder.Policy
	InvitationTTL time.Duration
	URLs          notification.URLs
}

// NewService creates a new reminder Service
func NewService(
	tenants TenantSource,
	requests onboarding.RequestRepository,
	requisitions requisition.RequisitionRepository,
	recipients *notification.Recipients,
	sender Sender,
	links *approval.Links,
	opts Options,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		tenants:       tenants,
		requests:      requests,
		requisitions:  requisitions,
		recipients:    recipients,
		sender:        sender,
		links:         links,
		urls:          opts.URLs,
		policy:        opts.Policy,
		invitationTTL: opts.InvitationTTL,
		metrics:       metrics,
		logger:        logger,
	}
}

// Sweep evaluates every pending item of every active tenant. A tenant that
// fails to load is counted as failed and the sweep moves on.
func (s *Service) Sweep(ctx context.Context, now time.Time) (Result, error) {
	log := logger.Enrich(ctx, s.logger)
	tenantIDs, err := s.tenants.ActiveTenantIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list tenants: %w", err)
	}

	var total Result
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := s.SweepTenant(ctx, tenantID, now)
		total.add(res)
		if err != nil {
			total.Failed++
			log.Error("Reminder sweep failed for tenant", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}

	log.Info("Reminder sweep finished",
		zap.Int("scanned", total.Scanned),
		zap.Int("reminded", total.Reminded),
		zap.Int("escalated", total.Escalated),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed),
	)
	return total, nil
}

// SweepTenant evaluates the pending onboarding requests and requisitions of
// one tenant
func (s *Service) SweepTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) (Result, error) {
	ctx = logger.WithTenantID(ctx, tenantID.String())
	ctx = logger.WithActor(ctx, logger.Actor{Kind: "system", ID: "reminder-sweep"})

	var res Result
	requests, err := s.requests.FindOpen(ctx, tenantID)
	if err != nil {
		return res, fmt.Errorf("load open onboarding requests: %w", err)
	}
	for i := range requests {
		res.Scanned++
		s.onboardingItem(ctx, &requests[i], now, &res)
	}

	reqs, err := s.requisitions.FindPendingApproval(ctx, tenantID)
	if err != nil {
		return res, fmt.Errorf("load pending requisitions: %w", err)
	}
	for i := range reqs {
		res.Scanned++
		s.requisitionItem(ctx, &reqs[i], now, &res)
	}
	return res, nil
}

// outcome books a processed item. Nothing is recorded when no email went out,
// so the item is picked up again by the next sweep.
func (s *Service) outcome(ctx context.Context, subject, label string, action reminder.Action, sent int, sendErr error, save func() error, res *Result) {
	log := logger.Enrich(ctx, s.logger).With(zap.String("item", label), zap.String("action", string(action)))
	if sent == 0 {
		if sendErr != nil {
			res.Failed++
			s.metrics.Reminder(subject, "failed")
			log.Warn("Reminder not delivered", zap.Error(sendErr))
			return
		}
		res.Skipped++
		s.metrics.Reminder(subject, "skipped")
		log.Warn("No recipient for reminder")
		return
	}
	if err := save(); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			res.Skipped++
			s.metrics.Reminder(subject, "skipped")
			log.Info("Item changed during reminder sweep, skipping")
			return
		}
		res.Failed++
		s.metrics.Reminder(subject, "failed")
		log.Error("Failed to record reminder", zap.Error(err))
		return
	}
	res.count(action)
	s.metrics.Reminder(subject, actionLabel(action))
	log.Info("Reminder sent", zap.Int("recipients", sent))
}

func (s *Service) onboardingItem(ctx context.Context, r *onboarding.Request, now time.Time, res *Result) {
	action := s.policy.Evaluate(r.Reminder, now)
	if action == reminder.ActionNone {
		return
	}
	label := fmt.Sprintf("Onboarding %s (%s)", r.RequestNumber, r.SupplierName)

	var sent int
	var err error
	if action == reminder.ActionEscalate {
		sent, err = s.escalateOnboarding(ctx, r, label, now)
	} else {
		sent, err = s.remindOnboarding(ctx, r, label, now)
	}
	note := fmt.Sprintf("%s sent to %d recipient(s)", actionLabel(action), sent)
	s.outcome(ctx, "onboarding", label, action, sent, err, func() error {
		r.RecordReminder(action, note, now)
		return s.requests.SaveWithLock(ctx, r)
	}, res)
}

func (s *Service) remindOnboarding(ctx context.Context, r *onboarding.Request, label string, now time.Time) (int, error) {
	data := s.reminderData(label, string(r.Status), r.Reminder, now)

	switch r.Status {
	case onboarding.StatusPendingManagerApproval:
		mgr, err := s.recipients.User(ctx, r.TenantID, r.ManagerID)
		if err != nil || mgr == nil {
			return 0, err
		}
		return s.sendWithLinks(ctx, onboardingEnvelope(r), []*identity.User{mgr}, data, func(u *identity.User) (string, error) {
			link, err := s.links.ForOnboarding(r, u.ID)
			return link.URL, err
		})
	case onboarding.StatusPendingProcurementApproval:
		pool, err := s.recipients.Role(ctx, r.TenantID, identity.RoleProcurement)
		if err != nil {
			return 0, err
		}
		return s.sendWithLinks(ctx, onboardingEnvelope(r), pool, data, func(u *identity.User) (string, error) {
			link, err := s.links.ForOnboarding(r, u.ID)
			return link.URL, err
		})
	case onboarding.StatusAwaitingDocuments, onboarding.StatusRevisionRequested:
		// The portal only stores a token hash, so a fresh link is issued.
		token, err := r.ResendInvitation(onboarding.SystemActor(), s.invitationTTL)
		if err != nil {
			return 0, err
		}
		r.ClearDomainEvents()
		data["ActionURL"] = s.urls.PortalLink(token)
		env := onboardingEnvelope(r)
		env.To = r.SupplierEmail
		env.RecipientName = r.SupplierName
		env.Template = mail.TemplateReminder
		env.Data = data
		if err := s.sender.Notify(ctx, env); err != nil {
			return 0, err
		}
		return 1, nil
	case onboarding.StatusDocumentsSubmitted, onboarding.StatusUnderReview:
		reviewers, err := s.reviewers(ctx, r)
		if err != nil {
			return 0, err
		}
		url := s.urls.AppLink("/onboarding/" + r.ID.String())
		return s.sendWithLinks(ctx, onboardingEnvelope(r), reviewers, data, func(*identity.User) (string, error) {
			return url, nil
		})
	}
	return 0, nil
}

func (s *Service) escalateOnboarding(ctx context.Context, r *onboarding.Request, label string, now time.Time) (int, error) {
	var (
		to          []*identity.User
		responsible string
		err         error
	)
	switch r.Status {
	case onboarding.StatusPendingManagerApproval:
		responsible = s.nameOf(ctx, r.TenantID, r.ManagerID)
		to, err = s.recipients.ManagerOrAdmins(ctx, r.TenantID, r.ManagerID)
	case onboarding.StatusPendingProcurementApproval:
		responsible = "Procurement team"
		to, err = s.recipients.Role(ctx, r.TenantID, identity.RoleAdmin)
	case onboarding.StatusAwaitingDocuments, onboarding.StatusRevisionRequested:
		responsible = r.SupplierName
		var requester *identity.User
		if requester, err = s.recipients.User(ctx, r.TenantID, r.RequesterID); requester != nil {
			to = []*identity.User{requester}
		}
	case onboarding.StatusDocumentsSubmitted, onboarding.StatusUnderReview:
		responsible = "Procurement team"
		if r.ReviewerID != nil {
			responsible = s.nameOf(ctx, r.TenantID, *r.ReviewerID)
		}
		to, err = s.recipients.Role(ctx, r.TenantID, identity.RoleAdmin)
	}
	if err != nil {
		return 0, err
	}
	data := s.escalationData(label, string(r.Status), r.Reminder, now, responsible, s.urls.AppLink("/onboarding/"+r.ID.String()))
	return s.send(ctx, onboardingEnvelope(r), to, mail.TemplateEscalation, data)
}

func (s *Service) reviewers(ctx context.Context, r *onboarding.Request) ([]*identity.User, error) {
	if r.ReviewerID != nil {
		u, err := s.recipients.User(ctx, r.TenantID, *r.ReviewerID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return []*identity.User{u}, nil
		}
	}
	return s.recipients.Role(ctx, r.TenantID, identity.RoleProcurement)
}

func (s *Service) requisitionItem(ctx context.Context, r *requisition.Requisition, now time.Time, res *Result) {
	step := r.CurrentStep()
	if step == nil {
		return
	}
	action := s.policy.Evaluate(step.Reminder, now)
	if action == reminder.ActionNone {
		return
	}
	label := fmt.Sprintf("Requisition %s (%s)", r.Number, r.Title)
	stage := fmt.Sprintf("%s approval (step %d)", step.Role, step.Sequence)

	var sent int
	var err error
	if action == reminder.ActionEscalate {
		var to []*identity.User
		responsible := string(step.Role) + " approvers"
		if step.ApproverID != nil {
			responsible = s.nameOf(ctx, r.TenantID, *step.ApproverID)
			to, err = s.recipients.ManagerOrAdmins(ctx, r.TenantID, *step.ApproverID)
		} else {
			to, err = s.recipients.Role(ctx, r.TenantID, identity.RoleAdmin)
		}
		if err == nil {
			data := s.escalationData(label, stage, step.Reminder, now, responsible, s.urls.AppLink("/requisitions/"+r.ID.String()))
			sent, err = s.send(ctx, requisitionEnvelope(r), excluding(to, r.RequesterID), mail.TemplateEscalation, data)
		}
	} else {
		var pool []*identity.User
		pool, err = s.recipients.StepPool(ctx, r.TenantID, step.Role, step.ApproverID)
		if err == nil {
			data := s.reminderData(label, stage, step.Reminder, now)
			sent, err = s.sendWithLinks(ctx, requisitionEnvelope(r), excluding(pool, r.RequesterID), data, func(u *identity.User) (string, error) {
				link, err := s.links.ForRequisition(r, u.ID)
				return link.URL, err
			})
		}
	}

	s.outcome(ctx, "requisition", label, action, sent, err, func() error {
		r.RecordReminder(action, now)
		return s.requisitions.SaveWithLock(ctx, r)
	}, res)
}

// sendWithLinks sends the reminder template to each user with a personal
// action URL. It returns how many messages went out and the last failure.
func (s *Service) sendWithLinks(ctx context.Context, base notification.Envelope, to []*identity.User, data mail.Data, urlFor func(*identity.User) (string, error)) (int, error) {
	var sent int
	var lastErr error
	for _, u := range to {
		url, err := urlFor(u)
		if err != nil {
			lastErr = err
			continue
		}
		d := clone(data)
		d["ActionURL"] = url
		env := base
		env.To, env.RecipientName, env.Template, env.Data = u.Email, u.Name(), mail.TemplateReminder, d
		if err := s.sender.Notify(ctx, env); err != nil {
			lastErr = err
			continue
		}
		sent++
	}
	return sent, lastErr
}

func (s *Service) send(ctx context.Context, base notification.Envelope, to []*identity.User, template string, data mail.Data) (int, error) {
	var sent int
	var lastErr error
	for _, u := range to {
		env := base
		env.To, env.RecipientName, env.Template, env.Data = u.Email, u.Name(), template, clone(data)
		if err := s.sender.Notify(ctx, env); err != nil {
			lastErr = err
			continue
		}
		sent++
	}
	return sent, lastErr
}

func (s *Service) reminderData(label, stage string, t reminder.Tracker, now time.Time) mail.Data {
	return mail.Data{
		"ItemLabel":     label,
		"Stage":         stage,
		"Age":           FormatAge(t.Age(now)),
		"ReminderCount": t.ReminderCount + 1,
	}
}

func (s *Service) escalationData(label, stage string, t reminder.Tracker, now time.Time, responsible, linkURL string) mail.Data {
	return mail.Data{
		"ItemLabel":       label,
		"Stage":           stage,
		"Age":             FormatAge(t.Age(now)),
		"ResponsibleName": responsible,
		"LinkURL":         linkURL,
	}
}

func (s *Service) nameOf(ctx context.Context, tenantID, userID uuid.UUID) string {
	u, err := s.recipients.User(ctx, tenantID, userID)
	if err != nil || u == nil {
		return "the assigned approver"
	}
	return u.Name()
}

// FormatAge renders a waiting time in whole days, or hours below a day
func FormatAge(d time.Duration) string {
	if d < 24*time.Hour {
		h := int(d.Hours())
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func actionLabel(a reminder.Action) string {
	if a == reminder.ActionEscalate {
		return "escalation"
	}
	return "reminder"
}

func onboardingEnvelope(r *onboarding.Request) notification.Envelope {
	id := r.ID
	return notification.Envelope{TenantID: r.TenantID, RelatedType: notification.RelatedOnboarding, RelatedID: &id}
}

func requisitionEnvelope(r *requisition.Requisition) notification.Envelope {
	id := r.ID
	return notification.Envelope{TenantID: r.TenantID, RelatedType: notification.RelatedRequisition, RelatedID: &id}
}

func excluding(users []*identity.User, id uuid.UUID) []*identity.User {
	out := make([]*identity.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func clone(d mail.Data) mail.Data {
	out := make(mail.Data, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}
