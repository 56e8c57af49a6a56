package reminder

import "time"

// Tracker is the reminder bookkeeping carried by anything that waits on a
// person: an onboarding stage or a requisition approval step
type Tracker struct {
	StageEnteredAt time.Time
	ReminderCount  int
	LastReminderAt *time.Time
	Escalated      bool
}

// NewTracker starts tracking a stage entered at the given time
func NewTracker(enteredAt time.Time) Tracker {
	return Tracker{StageEnteredAt: enteredAt}
}

// Reset restarts tracking for a new stage
func (t *Tracker) Reset(enteredAt time.Time) {
	*t = Tracker{StageEnteredAt: enteredAt}
}

// Record applies the outcome of a sent reminder or escalation
func (t *Tracker) Record(action Action, at time.Time) {
	switch action {
	case ActionRemind:
		t.ReminderCount++
		t.LastReminderAt = &at
	case ActionEscalate:
		t.Escalated = true
		t.LastReminderAt = &at
	}
}

// Age returns how long the stage has been waiting
func (t Tracker) Age(now time.Time) time.Duration {
	if t.StageEnteredAt.IsZero() {
		return 0
	}
	return now.Sub(t.StageEnteredAt)
}
