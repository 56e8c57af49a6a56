package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("loading supplier: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))

	custom := NewDomainError("NOT_FOUND", "supplier not found")
	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.Equal(t, "supplier not found", custom.Error())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2, 3}, 45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(45), p.Total)

	empty := NewPaginated([]int{}, 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestBaseAggregateRoot_Touch(t *testing.T) {
	root := NewTenantAggregateRoot(NewBaseEntity().ID)
	before := root.UpdatedAt
	root.Touch()
	assert.Equal(t, 1, root.GetVersion())
	assert.False(t, root.UpdatedAt.Before(before))
	root.IncrementVersion()
	assert.Equal(t, 2, root.GetVersion())

	root.AddDomainEvent(nil)
	assert.Len(t, root.GetDomainEvents(), 1)
	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}

type recordingPublisher struct {
	events []DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func TestPublishEvents(t *testing.T) {
	root := NewTenantAggregateRoot(NewBaseEntity().ID)
	ev := NewBaseDomainEvent("SupplierCreated", "Supplier", root.ID, root.TenantID)
	root.AddDomainEvent(&ev)

	pub := &recordingPublisher{}
	assert.NoError(t, PublishEvents(context.Background(), pub, &root))
	assert.Len(t, pub.events, 1)
	assert.Empty(t, root.GetDomainEvents())

	root.AddDomainEvent(&ev)
	assert.NoError(t, PublishEvents(context.Background(), nil, &root))
	assert.Empty(t, root.GetDomainEvents(), "nil publisher still clears")
}

func TestNow_UTCMicroseconds(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%1000)

	e := NewBaseEntity()
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.Equal(t, e.ID, e.GetID())
}

func TestBaseDomainEvent_String(t *testing.T) {
	id := uuid.MustParse("7d3f5b1e-0c2a-4f8e-9a61-2b7c4d5e6f70")
	ev := NewBaseDomainEvent("RequisitionSubmitted", "Requisition", id, uuid.New())
	assert.Equal(t, "RequisitionSubmitted Requisition/7d3f5b1e-0c2a-4f8e-9a61-2b7c4d5e6f70", ev.String())
	assert.Equal(t, time.UTC, ev.OccurredAt().Location())
}
