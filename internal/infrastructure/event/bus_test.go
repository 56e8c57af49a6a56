package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_PublishSynchronously(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("OnboardingApproved")
	bus.Subscribe(handler)

	event := newTestEvent("OnboardingApproved", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_WildcardAndSpecific(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	specific := newTestHandler("RequisitionApproved")
	wildcard := newTestHandler()
	bus.Subscribe(specific, "RequisitionApproved")
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("RequisitionApproved", uuid.New()),
		newTestEvent("ContractExpired", uuid.New()),
	))

	assert.Len(t, specific.getHandled(), 1)
	assert.Len(t, wildcard.getHandled(), 2)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("SpendRecorded")
	failing.err = errors.New("smtp down")
	panicking := newTestHandler("SpendRecorded")
	panicking.panics = true
	healthy := newTestHandler("SpendRecorded")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("SpendRecorded", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, panicking.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("ContractRenewed")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("ContractRenewed", uuid.New()))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("ContractRenewed", uuid.New()))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_AsyncDeliveryDrainsOnStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop(), WithQueueSize(16))
	handler := newTestHandler("OnboardingInitiated")
	bus.Subscribe(handler)

	require.NoError(t, bus.Start(context.Background()))

	ctx, cancelRequest := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("OnboardingInitiated", uuid.New())))
	}
	// A finished request must not cancel queued deliveries.
	cancelRequest()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))

	assert.Len(t, handler.getHandled(), 10)
}

func TestInMemoryEventBus_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))

	// After stop, delivery falls back to synchronous.
	handler := newTestHandler("EvaluationSubmitted")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EvaluationSubmitted", uuid.New())))
	assert.Len(t, handler.getHandled(), 1)
}

func TestHandlerFunc(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	var got []string
	bus.Subscribe(&HandlerFunc{
		Types: []string{"A", "B"},
		Fn: func(ctx context.Context, event shared.DomainEvent) error {
			got = append(got, event.EventType())
			return nil
		},
	})

	_ = bus.Publish(context.Background(), newTestEvent("A", uuid.New()), newTestEvent("C", uuid.New()), newTestEvent("B", uuid.New()))
	assert.Equal(t, []string{"A", "B"}, got)
}
