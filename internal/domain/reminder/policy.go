// Package reminder holds the elapsed-time policy that decides when a pending
// approval or supplier action is nudged and when it is escalated.
package reminder

import "time"

// Action is the outcome of evaluating a pending item
type Action string

const (
	ActionNone     Action = "NONE"
	ActionRemind   Action = "REMIND"
	ActionEscalate Action = "ESCALATE"
)

// Policy configures reminder timing. MaxReminders of 0 means unlimited.
type Policy struct {
	FirstReminderAfter time.Duration
	RepeatEvery        time.Duration
	EscalateAfter      time.Duration
	MaxReminders       int
}

// DefaultPolicy returns the standard timing: first nudge after two days,
// daily after that, escalation after five days
func DefaultPolicy() Policy {
	return Policy{
		FirstReminderAfter: 48 * time.Hour,
		RepeatEvery:        24 * time.Hour,
		EscalateAfter:      120 * time.Hour,
		MaxReminders:       5,
	}
}

// Validate checks the policy is internally consistent
func (p Policy) Validate() error {
	if p.FirstReminderAfter <= 0 || p.RepeatEvery <= 0 {
		return errInvalidPolicy("first_reminder_after and repeat_every must be positive")
	}
	if p.EscalateAfter > 0 && p.EscalateAfter < p.FirstReminderAfter {
		return errInvalidPolicy("escalate_after must not be shorter than first_reminder_after")
	}
	if p.MaxReminders < 0 {
		return errInvalidPolicy("max_reminders cannot be negative")
	}
	return nil
}

// Evaluate decides what to do for an item that entered its current stage at
// t.StageEnteredAt. Escalation happens once; reminders keep their cadence
// afterwards until MaxReminders is reached.
func (p Policy) Evaluate(t Tracker, now time.Time) Action {
	if t.StageEnteredAt.IsZero() {
		return ActionNone
	}
	elapsed := now.Sub(t.StageEnteredAt)

	if !t.Escalated && p.EscalateAfter > 0 && elapsed >= p.EscalateAfter {
		return ActionEscalate
	}
	if elapsed < p.FirstReminderAfter {
		return ActionNone
	}
	if p.MaxReminders > 0 && t.ReminderCount >= p.MaxReminders {
		return ActionNone
	}
	if t.LastReminderAt == nil || now.Sub(*t.LastReminderAt) >= p.RepeatEvery {
		return ActionRemind
	}
	return ActionNone
}

// OverdueSince is the latest stage entry time that counts as overdue at now:
// the item has waited past the first reminder point
func (p Policy) OverdueSince(now time.Time) time.Time {
	return now.Add(-p.FirstReminderAfter)
}

type policyError string

func (e policyError) Error() string { return "invalid reminder policy: " + string(e) }

func errInvalidPolicy(msg string) error { return policyError(msg) }
