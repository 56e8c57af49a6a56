package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = 24 * time.Hour

func newDraftContract(t *testing.T, start, end time.Time, autoRenew bool) *Contract {
	t.Helper()
	c, err := NewContract(uuid.New(), "CON-2026-00001", uuid.New(), "Acme", uuid.New(), Terms{
		Title:     "Sensor supply",
		Value:     decimal.NewFromInt(50000),
		Currency:  "usd",
		StartDate: start,
		EndDate:   end,
		AutoRenew: autoRenew,
	})
	require.NoError(t, err)
	return c
}

func TestNewContract(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newDraftContract(t, start, start.AddDate(1, 0, 0), false)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, DefaultRenewalNoticeDays, c.RenewalNoticeDays)

	_, err := NewContract(uuid.New(), "CON-1", uuid.New(), "Acme", uuid.New(), Terms{
		Title: "x", Currency: "USD", StartDate: start, EndDate: start,
	})
	assert.ErrorContains(t, err, "End date must be after start date")

	_, err = NewContract(uuid.New(), "CON-1", uuid.New(), "Acme", uuid.New(), Terms{
		Title: "x", Currency: "USD", Value: decimal.NewFromInt(-1), StartDate: start, EndDate: start.Add(day),
	})
	assert.ErrorContains(t, err, "negative")
}

func TestContract_Lifecycle(t *testing.T) {
	now := time.Now()
	c := newDraftContract(t, now.Add(-10*day), now.Add(300*day), false)

	assert.Error(t, c.Terminate("x"), "draft cannot be terminated")
	require.NoError(t, c.Activate())
	assert.Error(t, c.Activate())
	assert.Error(t, c.UpdateTerms(Terms{Title: "y"}), "active contract terms are frozen")

	assert.Error(t, c.Renew(c.EndDate.Add(-day), nil))
	newValue := decimal.NewFromInt(60000)
	require.NoError(t, c.Renew(c.EndDate.Add(365*day), &newValue))
	assert.True(t, c.Value.Equal(newValue))

	assert.Error(t, c.Terminate(" "))
	require.NoError(t, c.Terminate("supplier breached SLA"))
	assert.Equal(t, StatusTerminated, c.Status)
	assert.Error(t, c.Renew(c.EndDate.Add(day), nil))
}

func TestContract_Sweep(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("expires without auto renew", func(t *testing.T) {
		c := newDraftContract(t, now.AddDate(-1, 0, 0), now.Add(-day), false)
		require.NoError(t, c.Activate())
		assert.Equal(t, SweepExpired, c.Sweep(now))
		assert.Equal(t, StatusExpired, c.Status)
		assert.Equal(t, SweepNone, c.Sweep(now))

		require.NoError(t, c.Renew(now.AddDate(1, 0, 0), nil))
		assert.Equal(t, StatusActive, c.Status)
	})

	t.Run("auto renews by one term", func(t *testing.T) {
		start := now.Add(-100 * day)
		end := now.Add(-1 * day)
		c := newDraftContract(t, start, end, true)
		require.NoError(t, c.Activate())
		term := c.Term()

		assert.Equal(t, SweepRenewed, c.Sweep(now))
		assert.Equal(t, StatusActive, c.Status)
		assert.Equal(t, end, c.StartDate)
		assert.Equal(t, end.Add(term), c.EndDate)
	})

	t.Run("sends renewal notice once", func(t *testing.T) {
		c := newDraftContract(t, now.Add(-300*day), now.Add(20*day), false)
		require.NoError(t, c.Activate())
		assert.Equal(t, SweepRenewalNotice, c.Sweep(now))
		require.NotNil(t, c.RenewalNoticeSentAt)
		assert.Equal(t, SweepNone, c.Sweep(now.Add(day)))
	})

	t.Run("outside notice window", func(t *testing.T) {
		c := newDraftContract(t, now.Add(-10*day), now.Add(200*day), false)
		require.NoError(t, c.Activate())
		assert.Equal(t, SweepNone, c.Sweep(now))
	})
}

func TestContract_AttachDocument(t *testing.T) {
	now := time.Now()
	c := newDraftContract(t, now, now.Add(30*day), false)
	assert.Error(t, c.AttachDocument("contracts/other/file.pdf"))
	key := DocumentPrefix(c.TenantID, c.ID) + "signed.pdf"
	require.NoError(t, c.AttachDocument(key))
	assert.Equal(t, key, c.DocumentKey)
}
