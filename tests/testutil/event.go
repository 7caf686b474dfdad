package testutil

import (
	"context"
	"sync"

	"github.com/erp/ledger-engine/internal/domain/shared"
)

// EventRecorder subscribes to every event and keeps them in publish order
type EventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// EventTypes is empty so the recorder receives all events
func (r *EventRecorder) EventTypes() []string {
	return nil
}

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []string {
	events := r.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// Count returns how many events of eventType were recorded
func (r *EventRecorder) Count(eventType string) int {
	n := 0
	for _, t := range r.Types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
