package mail

import (
	"context"

	"github.com/procurement/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a development mailer
func NewLogMailer(l *zap.Logger) *LogMailer {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogMailer{logger: l}
}

// Send logs the message
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	logger.Enrich(ctx, m.logger).Info("Email (log driver)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
