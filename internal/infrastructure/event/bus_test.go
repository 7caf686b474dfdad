package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New())}
}

type recordingHandler struct {
	eventTypes []string
	err        error
	panics     bool

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panics {
		panic("handler exploded")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func startedBus(t *testing.T, l *zap.Logger) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(l)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to typed and wildcard handlers", func(t *testing.T) {
		bus := startedBus(t, zap.NewNop())
		paid := newRecordingHandler()
		all := newRecordingHandler()
		bus.Subscribe(paid, "InvoicePaid")
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx, newTestEvent("InvoicePaid"), newTestEvent("StockAdjusted")))

		assert.Equal(t, 1, paid.count())
		assert.Equal(t, 2, all.count())
	})

	t.Run("uses the handler's declared event types", func(t *testing.T) {
		bus := startedBus(t, zap.NewNop())
		h := newRecordingHandler("StockBelowThreshold")
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newTestEvent("StockBelowThreshold"), newTestEvent("InvoicePaid")))
		assert.Equal(t, 1, h.count())
	})

	t.Run("failing and panicking handlers do not stop delivery", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		bus := startedBus(t, zap.New(core))

		failing := newRecordingHandler()
		failing.err = errors.New("notifier down")
		panicking := newRecordingHandler()
		panicking.panics = true
		healthy := newRecordingHandler()

		bus.Subscribe(failing, "SalesOrderConfirmed")
		bus.Subscribe(panicking, "SalesOrderConfirmed")
		bus.Subscribe(healthy, "SalesOrderConfirmed")

		require.NoError(t, bus.Publish(ctx, newTestEvent("SalesOrderConfirmed")))

		assert.Equal(t, 1, healthy.count())
		assert.Equal(t, int64(2), bus.Failures())
		assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
	})

	t.Run("stopped bus drops events", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		bus := NewInMemoryEventBus(zap.New(core))
		h := newRecordingHandler()
		bus.Subscribe(h, "InvoicePaid")

		require.NoError(t, bus.Publish(ctx, newTestEvent("InvoicePaid")))

		assert.Zero(t, h.count())
		assert.Equal(t, 1, logs.FilterMessage("Event bus stopped, dropping event").Len())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t, zap.NewNop())
	h := newRecordingHandler()
	bus.Subscribe(h, "InvoicePaid", "InvoiceGenerated")
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InvoicePaid")))
	assert.Zero(t, h.count())
	assert.Zero(t, bus.registry.Len())
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := startedBus(t, zap.NewNop())
	h := newRecordingHandler()
	bus.Subscribe(h, "StockAdjusted")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), newTestEvent("StockAdjusted"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, h.count())
}
