package common

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"go.uber.org/zap"
)

// EventCollector gathers domain events raised by aggregates during a unit of
// work so they can be published once the transaction has committed.
type EventCollector struct {
	events []shared.DomainEvent
}

// Collect takes the pending events off each aggregate
func (c *EventCollector) Collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		c.events = append(c.events, agg.PullDomainEvents()...)
	}
}

// Events returns the collected events in the order they were raised
func (c *EventCollector) Events() []shared.DomainEvent {
	return c.events
}

// Reset drops everything collected by a rolled back attempt
func (c *EventCollector) Reset() {
	c.events = nil
}

// PublishAfterCommit hands committed events to the publisher. Publishing
// failures are logged; the state change they describe is already durable.
func PublishAfterCommit(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}
