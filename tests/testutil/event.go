package testutil

import (
	"context"
	"sync"

	"github.com/procurement/backend/internal/domain/shared"
)

// RecordingHandler is a shared.EventHandler that keeps every event it sees.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
}

// NewRecordingHandler subscribes to the given event types.
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler.
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle implements shared.EventHandler.
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return nil
}

// Handled returns a copy of the recorded events.
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// Last returns the most recent event of the given type, or nil.
func (h *RecordingHandler) Last(eventType string) shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.handled) - 1; i >= 0; i-- {
		if h.handled[i].EventType() == eventType {
			return h.handled[i]
		}
	}
	return nil
}
