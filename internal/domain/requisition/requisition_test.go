package requisition

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraft(t *testing.T, qty, price int64) *Requisition {
	t.Helper()
	r, err := NewRequisition(uuid.New(), "REQ-2026-00001", uuid.New(), "Riley", "Laptops for new hires", "usd")
	require.NoError(t, err)
	require.NoError(t, r.SetLines([]LineInput{
		{Description: "Laptop", Category: "IT Hardware", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price)},
	}))
	return r
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestApprovalPolicy_Chain(t *testing.T) {
	p := DefaultApprovalPolicy()
	assert.Equal(t, []ApproverRole{ApproverManager}, p.Chain(decimal.NewFromInt(4999)))
	assert.Equal(t, []ApproverRole{ApproverManager, ApproverProcurement}, p.Chain(decimal.NewFromInt(5000)))
	assert.Equal(t, []ApproverRole{ApproverManager, ApproverProcurement, ApproverFinance}, p.Chain(decimal.NewFromInt(25000)))
}

func TestRequisition_SetLines(t *testing.T) {
	r := newDraft(t, 3, 1200)
	assert.Equal(t, "USD", r.Currency)
	assert.True(t, r.TotalAmount.Equal(decimal.NewFromInt(3600)))

	err := r.SetLines([]LineInput{{Description: "x", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}})
	assert.ErrorContains(t, err, "quantity must be positive")
	assert.Equal(t, domainCode(t, r.SetLines(nil)), "NO_LINES")
	assert.True(t, r.TotalAmount.Equal(decimal.NewFromInt(3600)), "failed update keeps old lines")
}

func TestRequisition_Submit(t *testing.T) {
	t.Run("requires manager", func(t *testing.T) {
		r := newDraft(t, 1, 100)
		assert.Equal(t, "NO_MANAGER", domainCode(t, r.Submit(DefaultApprovalPolicy(), nil)))
	})

	t.Run("builds three step chain for large totals", func(t *testing.T) {
		r := newDraft(t, 30, 1000)
		mgr := uuid.New()
		require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))

		assert.Equal(t, StatusPendingApproval, r.Status)
		require.Len(t, r.Steps, 3)
		assert.Equal(t, StepPending, r.Steps[0].Status)
		assert.Equal(t, mgr, *r.Steps[0].ApproverID)
		assert.Equal(t, StepWaiting, r.Steps[1].Status)
		assert.Nil(t, r.Steps[1].ApproverID)
		assert.Equal(t, ApproverFinance, r.Steps[2].Role)
		assert.Error(t, r.SetLines([]LineInput{{Description: "x", Quantity: decimal.NewFromInt(1)}}), "submitted requisition is locked")
	})
}

func TestRequisition_ApprovalChain(t *testing.T) {
	r := newDraft(t, 10, 1000) // 10,000: manager + procurement
	mgr := uuid.New()
	require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))
	r.ClearDomainEvents()

	requester := Decider{ID: r.RequesterID, Pools: []ApproverRole{ApproverProcurement}, Admin: true}
	assert.Equal(t, "SELF_APPROVAL", domainCode(t, r.Approve(requester, "")))

	stranger := Decider{ID: uuid.New(), Pools: []ApproverRole{ApproverProcurement}}
	assert.Equal(t, "NOT_CURRENT_APPROVER", domainCode(t, r.Approve(stranger, "")), "procurement cannot decide the manager step")

	require.NoError(t, r.Approve(Decider{ID: mgr, Name: "Morgan"}, "fine"))
	assert.Equal(t, StatusPendingApproval, r.Status)
	assert.Equal(t, StepApproved, r.Steps[0].Status)
	assert.Equal(t, "Morgan", r.Steps[0].DeciderName)
	require.NotNil(t, r.CurrentStep())
	assert.Equal(t, ApproverProcurement, r.CurrentStep().Role)

	types := []string{}
	for _, e := range r.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{EventTypeStepApproved, EventTypeStepActivated}, types)

	assert.Error(t, r.Approve(Decider{ID: mgr}, ""), "manager has no say on the procurement step")
	require.NoError(t, r.Approve(stranger, "ok"))
	assert.Equal(t, StatusApproved, r.Status)
	assert.NotNil(t, r.ApprovedAt)
	assert.Nil(t, r.CurrentStep())

	require.NoError(t, r.MarkOrdered("PO-2026-00042"))
	assert.Equal(t, StatusOrdered, r.Status)
	last := r.GetDomainEvents()[len(r.GetDomainEvents())-1].(*RequisitionEvent)
	assert.Equal(t, EventTypeOrdered, last.EventType())
	assert.Equal(t, "PO-2026-00042", last.PONumber)
}

func TestRequisition_Reject(t *testing.T) {
	r := newDraft(t, 30, 1000)
	mgr := uuid.New()
	require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))

	assert.Equal(t, "COMMENT_REQUIRED", domainCode(t, r.Reject(Decider{ID: mgr}, "")))
	require.NoError(t, r.Reject(Decider{ID: mgr}, "Use the existing stock"))
	assert.Equal(t, StatusRejected, r.Status)
	assert.Equal(t, StepRejected, r.Steps[0].Status)
	assert.Equal(t, StepSkipped, r.Steps[1].Status)
	assert.Equal(t, StepSkipped, r.Steps[2].Status)
	assert.Error(t, r.MarkOrdered("PO-1"))
}

func TestRequisition_AdminCanDecideAnyStep(t *testing.T) {
	r := newDraft(t, 1, 100)
	mgr := uuid.New()
	require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))
	require.NoError(t, r.Approve(Decider{ID: uuid.New(), Admin: true}, "covering for Morgan"))
	assert.Equal(t, StatusApproved, r.Status)
}

func TestRequisition_Cancel(t *testing.T) {
	r := newDraft(t, 1, 100)
	mgr := uuid.New()
	require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))
	require.NoError(t, r.Cancel("bought elsewhere"))
	assert.Equal(t, StatusCancelled, r.Status)
	assert.Equal(t, StepSkipped, r.Steps[0].Status)
	assert.Error(t, r.Cancel("again"))
}

func TestRequisition_RecordReminder(t *testing.T) {
	r := newDraft(t, 1, 100)
	r.RecordReminder(reminder.ActionRemind, time.Now()) // no step yet, ignored

	mgr := uuid.New()
	require.NoError(t, r.Submit(DefaultApprovalPolicy(), &mgr))
	r.RecordReminder(reminder.ActionRemind, time.Now())
	assert.Equal(t, 1, r.CurrentStep().Reminder.ReminderCount)
}
