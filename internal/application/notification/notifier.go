// Package notification turns workflow events into email and keeps the audit
// log of every message sent.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/notification"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/mail"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Related entity types stored on notification rows
const (
	RelatedOnboarding  = "onboarding_request"
	RelatedRequisition = "requisition"
	RelatedContract    = "contract"
)

// Renderer renders a catalog template
type Renderer interface {
	Render(name string, data mail.Data) (mail.Rendered, error)
}

// Envelope is one email to send
type Envelope struct {
	TenantID      uuid.UUID
	To            string
	RecipientName string
	Template      string
	Data          mail.Data
	RelatedType   string
	RelatedID     *uuid.UUID
}

// Notifier renders, sends and records email
type Notifier struct {
	renderer Renderer
	mailer   mail.Mailer
	repo     notification.NotificationRepository
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(renderer Renderer, mailer mail.Mailer, repo notification.NotificationRepository, metrics *telemetry.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{renderer: renderer, mailer: mailer, repo: repo, metrics: metrics, logger: logger}
}

// Notify sends one message and records the outcome. The returned error is the
// render or delivery failure; a failure to write the audit row is only logged.
func (n *Notifier) Notify(ctx context.Context, env Envelope) error {
	log := logger.Enrich(ctx, n.logger).With(
		zap.String("template", env.Template),
		zap.String("recipient", env.To),
	)

	data := make(mail.Data, len(env.Data)+1)
	for k, v := range env.Data {
		data[k] = v
	}
	if _, ok := data["RecipientName"]; !ok {
		data["RecipientName"] = recipientName(env)
	}

	var subject string
	rendered, err := n.renderer.Render(env.Template, data)
	if err == nil {
		subject = rendered.Subject
		err = n.mailer.Send(ctx, mail.Message{
			To:      env.To,
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
			Text:    rendered.Text,
		})
	}

	record := notification.NewNotification(env.TenantID, env.To, env.Template, subject, env.RelatedType, env.RelatedID, err)
	n.metrics.Email(env.Template, strings.ToLower(string(record.Status)))
	if saveErr := n.repo.Save(ctx, record); saveErr != nil {
		log.Warn("Failed to record notification", zap.Error(saveErr))
	}

	if err != nil {
		log.Error("Email delivery failed", zap.Error(err))
		return err
	}
	log.Info("Email sent", zap.String("subject", subject))
	return nil
}

func recipientName(env Envelope) string {
	if name := strings.TrimSpace(env.RecipientName); name != "" {
		return name
	}
	if at := strings.IndexByte(env.To, '@'); at > 0 {
		return env.To[:at]
	}
	return env.To
}

// ListFilter represents filter options for the notification log
type ListFilter struct {
	RelatedID *uuid.UUID `form:"-"` // query related_id, parsed by the handler
	Recipient string     `form:"recipient"`
	Status    string     `form:"status" binding:"omitempty,oneof=SENT FAILED"`
	Template  string     `form:"template"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse is the API view of a sent email
type NotificationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Recipient   string     `json:"recipient"`
	Template    string     `json:"template"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	RelatedType string     `json:"related_type,omitempty"`
	RelatedID   *uuid.UUID `json:"related_id,omitempty"`
	SentAt      time.Time  `json:"sent_at"`
}

// ToNotificationResponse converts a domain notification
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Recipient:   n.Recipient,
		Template:    n.Template,
		Subject:     n.Subject,
		Status:      string(n.Status),
		Error:       n.Error,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		SentAt:      n.SentAt,
	}
}

// List returns the email log, newest first. Filtering by related id shows
// the full email chain of one request.
func (n *Notifier) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]NotificationResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "sent_at"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.RelatedID != nil {
		domainFilter.Filters["related_id"] = *filter.RelatedID
	}
	if r := strings.TrimSpace(filter.Recipient); r != "" {
		domainFilter.Filters["recipient"] = r
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Template != "" {
		domainFilter.Filters["template"] = filter.Template
	}

	rows, total, err := n.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]NotificationResponse, len(rows))
	for i := range rows {
		out[i] = ToNotificationResponse(&rows[i])
	}
	return out, total, nil
}
