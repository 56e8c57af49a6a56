package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Evaluate(t *testing.T) {
	p := DefaultPolicy()
	entered := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return entered.Add(time.Duration(h) * time.Hour) }
	ptr := func(tm time.Time) *time.Time { return &tm }

	tests := []struct {
		name    string
		tracker Tracker
		now     time.Time
		want    Action
	}{
		{"fresh stage", Tracker{StageEnteredAt: entered}, at(10), ActionNone},
		{"just before first reminder", Tracker{StageEnteredAt: entered}, at(47), ActionNone},
		{"first reminder due", Tracker{StageEnteredAt: entered}, at(48), ActionRemind},
		{"repeat not yet due", Tracker{StageEnteredAt: entered, ReminderCount: 1, LastReminderAt: ptr(at(48))}, at(60), ActionNone},
		{"repeat due", Tracker{StageEnteredAt: entered, ReminderCount: 1, LastReminderAt: ptr(at(48))}, at(72), ActionRemind},
		{"escalation due", Tracker{StageEnteredAt: entered, ReminderCount: 3, LastReminderAt: ptr(at(96))}, at(120), ActionEscalate},
		{"escalation wins over remind", Tracker{StageEnteredAt: entered}, at(200), ActionEscalate},
		{"after escalation reminders continue", Tracker{StageEnteredAt: entered, ReminderCount: 3, Escalated: true, LastReminderAt: ptr(at(120))}, at(144), ActionRemind},
		{"max reminders reached", Tracker{StageEnteredAt: entered, ReminderCount: 5, Escalated: true, LastReminderAt: ptr(at(150))}, at(300), ActionNone},
		{"untracked", Tracker{}, at(300), ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(tt.tracker, tt.now))
		})
	}
}

func TestPolicy_UnlimitedReminders(t *testing.T) {
	p := Policy{FirstReminderAfter: time.Hour, RepeatEvery: time.Hour}
	entered := time.Now().Add(-100 * time.Hour)
	last := time.Now().Add(-2 * time.Hour)
	tr := Tracker{StageEnteredAt: entered, ReminderCount: 50, LastReminderAt: &last}
	assert.Equal(t, ActionRemind, p.Evaluate(tr, time.Now()))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{RepeatEvery: time.Hour}.Validate())
	assert.Error(t, Policy{FirstReminderAfter: 10 * time.Hour, RepeatEvery: time.Hour, EscalateAfter: time.Hour}.Validate())
	assert.Error(t, Policy{FirstReminderAfter: time.Hour, RepeatEvery: time.Hour, MaxReminders: -1}.Validate())
}

func TestTracker_RecordAndReset(t *testing.T) {
	now := time.Now()
	tr := NewTracker(now.Add(-72 * time.Hour))
	tr.Record(ActionRemind, now)
	tr.Record(ActionEscalate, now)
	tr.Record(ActionNone, now)

	assert.Equal(t, 1, tr.ReminderCount)
	assert.True(t, tr.Escalated)
	assert.Equal(t, now, *tr.LastReminderAt)
	assert.InDelta(t, 72*time.Hour, tr.Age(now), float64(time.Second))

	tr.Reset(now)
	assert.Zero(t, tr.ReminderCount)
	assert.False(t, tr.Escalated)
	assert.Nil(t, tr.LastReminderAt)
}

func TestPolicy_OverdueSince(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-p.FirstReminderAfter), p.OverdueSince(now))
	assert.True(t, p.OverdueSince(now).After(now.Add(-p.EscalateAfter)), "overdue well before escalation")
}
