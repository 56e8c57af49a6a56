package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// sendFunc delivers a fully encoded message to one recipient
type sendFunc func(ctx context.Context, from, to string, body []byte) error

// SMTPMailer sends messages through an SMTP relay
type SMTPMailer struct {
	cfg             config.MailConfig
	logger          *zap.Logger
	send            sendFunc
	initialInterval time.Duration
	now             func() time.Time
}

// SMTPOption configures an SMTPMailer
type SMTPOption func(*SMTPMailer)

// WithSender replaces the network transport
func WithSender(fn func(ctx context.Context, from, to string, body []byte) error) SMTPOption {
	return func(m *SMTPMailer) { m.send = fn }
}

// WithInitialInterval sets the first retry delay
func WithInitialInterval(d time.Duration) SMTPOption {
	return func(m *SMTPMailer) { m.initialInterval = d }
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg config.MailConfig, l *zap.Logger, opts ...SMTPOption) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if l == nil {
		l = zap.NewNop()
	}
	m := &SMTPMailer{
		cfg:             cfg,
		logger:          l,
		initialInterval: 500 * time.Millisecond,
		now:             time.Now,
	}
	m.send = m.dial
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Send encodes msg and delivers it, retrying transient failures
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := m.encode(msg)
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initialInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(m.cfg.MaxRetries, 0))), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := m.send(ctx, m.cfg.From, msg.To, body)
		if err == nil {
			return nil
		}
		var perr *textproto.Error
		if errors.As(err, &perr) && perr.Code >= 500 {
			return backoff.Permanent(err)
		}
		logger.Enrich(ctx, m.logger).Warn("SMTP send failed",
			zap.String("to", msg.To),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("mail: send to %s after %d attempt(s): %w", msg.To, attempt, err)
	}
	return nil
}

// encode builds a multipart/alternative message with text and HTML parts
func (m *SMTPMailer) encode(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = mime.QEncoding.Encode("utf-8", m.cfg.FromName) + " <" + m.cfg.From + ">"
	}
	headers := []struct{ k, v string }{
		{"From", from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"Message-ID", "<" + uuid.NewString() + "@" + m.cfg.Host + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + strconv.Quote(mw.Boundary())},
	}
	var head bytes.Buffer
	for _, h := range headers {
		head.WriteString(h.k + ": " + h.v + "\r\n")
	}
	head.WriteString("\r\n")

	parts := []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return append(head.Bytes(), buf.Bytes()...), nil
}

// dial performs one SMTP transaction, upgrading to TLS when the server offers it
func (m *SMTPMailer) dial(ctx context.Context, from, to string, body []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
