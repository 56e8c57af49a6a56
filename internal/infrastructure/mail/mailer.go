// Package mail sends outbound email and renders the embedded message templates.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/procurement/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when a message has no usable address
var ErrNoRecipient = errors.New("mail: recipient is required")

// Message is one rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Validate checks the recipient address
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("mail: invalid recipient %q: %w", m.To, err)
	}
	return nil
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the mailer selected by cfg.Driver
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(cfg, logger)
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}
