package mail

import (
	"context"
	"errors"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMailConfig(retries int) config.MailConfig {
	return config.MailConfig{
		Driver:     "smtp",
		Host:       "smtp.example.com",
		Port:       587,
		From:       "procurement@example.com",
		FromName:   "Procurement",
		MaxRetries: retries,
		Timeout:    time.Second,
	}
}

func testMessage() Message {
	return Message{To: "mia@example.com", Subject: "Approval needed", HTML: "<p>Hello</p>", Text: "Hello"}
}

func TestSMTPMailer_SendSuccess(t *testing.T) {
	var got []byte
	var calls int32
	m, err := NewSMTPMailer(testMailConfig(3), zap.NewNop(), WithSender(func(_ context.Context, from, to string, body []byte) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "procurement@example.com", from)
		assert.Equal(t, "mia@example.com", to)
		got = body
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Equal(t, int32(1), calls)

	body := string(got)
	assert.Contains(t, body, "To: mia@example.com\r\n")
	assert.Contains(t, body, "Subject: Approval needed\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "text/html; charset=utf-8")
}

func TestSMTPMailer_RetriesTransientErrors(t *testing.T) {
	var calls int32
	m, err := NewSMTPMailer(testMailConfig(3), zap.NewNop(),
		WithInitialInterval(time.Millisecond),
		WithSender(func(context.Context, string, string, []byte) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("connection reset")
			}
			return nil
		}),
	)
	require.NoError(t, err)

	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Equal(t, int32(3), calls)
}

func TestSMTPMailer_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	m, err := NewSMTPMailer(testMailConfig(2), zap.NewNop(),
		WithInitialInterval(time.Millisecond),
		WithSender(func(context.Context, string, string, []byte) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("connection refused")
		}),
	)
	require.NoError(t, err)

	err = m.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int32(3), calls, "one attempt plus two retries")
}

func TestSMTPMailer_PermanentErrorNotRetried(t *testing.T) {
	var calls int32
	m, err := NewSMTPMailer(testMailConfig(5), zap.NewNop(),
		WithInitialInterval(time.Millisecond),
		WithSender(func(context.Context, string, string, []byte) error {
			atomic.AddInt32(&calls, 1)
			return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
		}),
	)
	require.NoError(t, err)

	err = m.Send(context.Background(), testMessage())
	require.Error(t, err)
	var perr *textproto.Error
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, int32(1), calls)
}

func TestSMTPMailer_InvalidRecipient(t *testing.T) {
	m, err := NewSMTPMailer(testMailConfig(1), zap.NewNop(), WithSender(func(context.Context, string, string, []byte) error {
		t.Fatal("sender must not be called")
		return nil
	}))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)
	assert.Error(t, m.Send(context.Background(), Message{To: "not an address"}))
}

func TestNewSMTPMailer_RequiresHost(t *testing.T) {
	cfg := testMailConfig(1)
	cfg.Host = ""
	_, err := NewSMTPMailer(cfg, nil)
	assert.Error(t, err)
}

func TestNew_SelectsDriver(t *testing.T) {
	m, err := New(config.MailConfig{Driver: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), testMessage()))

	m, err = New(testMailConfig(1), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = New(config.MailConfig{Driver: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
