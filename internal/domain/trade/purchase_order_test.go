package trade

import (
	"errors"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers for PurchaseOrder
func createTestItem(t *testing.T, qty int, price string) OrderItem {
	item, err := NewOrderItem(uuid.New(), qty, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func createTestPurchaseOrder(t *testing.T, items ...OrderItem) *PurchaseOrder {
	order, err := NewPurchaseOrder("PO-2024-001", uuid.New(), items)
	require.NoError(t, err)
	return order
}

// ============================================
// PurchaseOrderStatus Tests
// ============================================

func TestPurchaseOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  PurchaseOrderStatus
		isValid bool
	}{
		{PurchaseOrderStatusPending, true},
		{PurchaseOrderStatusOrdered, true},
		{PurchaseOrderStatusReceived, true},
		{PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatus("completed"), false},
		{PurchaseOrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestPurchaseOrderStatus_CanTransitionTo(t *testing.T) {
	all := []PurchaseOrderStatus{
		PurchaseOrderStatusPending, PurchaseOrderStatusOrdered,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled,
	}
	allowed := map[[2]PurchaseOrderStatus]bool{
		{PurchaseOrderStatusPending, PurchaseOrderStatusOrdered}:   true,
		{PurchaseOrderStatusPending, PurchaseOrderStatusCancelled}: true,
		{PurchaseOrderStatusOrdered, PurchaseOrderStatusReceived}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]PurchaseOrderStatus{from, to}], from.CanTransitionTo(to))
			})
		}
	}

	assert.True(t, PurchaseOrderStatusReceived.IsTerminal())
	assert.True(t, PurchaseOrderStatusCancelled.IsTerminal())
	assert.False(t, PurchaseOrderStatusOrdered.IsTerminal())
}

// ============================================
// PurchaseOrder Tests
// ============================================

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("computes total from items", func(t *testing.T) {
		order := createTestPurchaseOrder(t,
			createTestItem(t, 10, "25.00"),
			createTestItem(t, 5, "50.00"),
		)
		assert.Equal(t, PurchaseOrderStatusPending, order.Status)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(500)))
		assert.False(t, order.AutoGenerated)
		assert.Equal(t, 1, order.Version)
		require.Len(t, order.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePurchaseOrderCreated, order.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := NewPurchaseOrder("", uuid.New(), nil)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_ORDER_NUMBER", domainErr.Code)
	})

	t.Run("rejects missing supplier", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", uuid.Nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", uuid.New(), []OrderItem{{ProductID: uuid.New(), Quantity: 0, UnitPrice: decimal.NewFromInt(1)}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Quantity must be positive")
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		_, err := NewOrderItem(uuid.New(), 1, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("rejects unit price finer than cents", func(t *testing.T) {
		_, err := NewOrderItem(uuid.New(), 3, decimal.RequireFromString("41.6667"))
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)

		_, err = NewPurchaseOrder("PO-1", uuid.New(), []OrderItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("9.999")}})
		assert.ErrorAs(t, err, &domainErr)
	})
}

func TestNewAutoPurchaseOrder(t *testing.T) {
	productID := uuid.New()
	order, err := NewAutoPurchaseOrder("PO-AUTO-1", uuid.New(), productID, 6, decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	assert.True(t, order.AutoGenerated)
	require.NotNil(t, order.SourceProductID)
	assert.Equal(t, productID, *order.SourceProductID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 6, order.Items[0].Quantity)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, PurchaseOrderStatusPending, order.Status)
}

func TestPurchaseOrder_Lifecycle(t *testing.T) {
	order := createTestPurchaseOrder(t, createTestItem(t, 4, "10"))

	require.NoError(t, order.Order())
	assert.Equal(t, PurchaseOrderStatusOrdered, order.Status)
	assert.NotNil(t, order.OrderedAt)

	received, err := order.Receive()
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderStatusReceived, order.Status)
	assert.NotNil(t, order.ReceivedAt)
	require.Len(t, received, 1)
	assert.Equal(t, 4, received[0].Quantity)

	events := order.GetDomainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, EventTypePurchaseOrderOrdered, events[1].EventType())
	assert.Equal(t, EventTypePurchaseOrderReceived, events[2].EventType())
}

func TestPurchaseOrder_Order_RequiresItems(t *testing.T) {
	order := createTestPurchaseOrder(t)
	err := order.Order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without items")
	assert.Equal(t, PurchaseOrderStatusPending, order.Status)
}

func TestPurchaseOrder_InvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(o *PurchaseOrder)
		action func(o *PurchaseOrder) error
	}{
		{
			name:   "receive while pending",
			setup:  func(o *PurchaseOrder) {},
			action: func(o *PurchaseOrder) error { _, err := o.Receive(); return err },
		},
		{
			name:   "cancel after ordering",
			setup:  func(o *PurchaseOrder) { _ = o.Order() },
			action: func(o *PurchaseOrder) error { return o.Cancel("late") },
		},
		{
			name:   "order twice",
			setup:  func(o *PurchaseOrder) { _ = o.Order() },
			action: func(o *PurchaseOrder) error { return o.Order() },
		},
		{
			name:   "receive twice",
			setup:  func(o *PurchaseOrder) { _ = o.Order(); _, _ = o.Receive() },
			action: func(o *PurchaseOrder) error { _, err := o.Receive(); return err },
		},
		{
			name:   "order after cancel",
			setup:  func(o *PurchaseOrder) { _ = o.Cancel("not needed") },
			action: func(o *PurchaseOrder) error { return o.Order() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := createTestPurchaseOrder(t, createTestItem(t, 1, "1"))
			tt.setup(order)
			before := order.Status
			eventCount := len(order.GetDomainEvents())

			err := tt.action(order)

			assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "got %v", err)
			assert.Equal(t, before, order.Status)
			assert.Len(t, order.GetDomainEvents(), eventCount)
		})
	}
}

func TestPurchaseOrder_AddItem(t *testing.T) {
	order := createTestPurchaseOrder(t)
	require.NoError(t, order.AddItem(createTestItem(t, 2, "7.25")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("14.5")))

	require.NoError(t, order.Order())
	err := order.AddItem(createTestItem(t, 1, "1"))
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

func TestQuantitiesByProduct(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	items := []OrderItem{
		{ProductID: b, Quantity: 2},
		{ProductID: a, Quantity: 3},
		{ProductID: b, Quantity: 4},
	}

	got := QuantitiesByProduct(items)
	require.Len(t, got, 2)
	totals := map[uuid.UUID]int{got[0].ProductID: got[0].Quantity, got[1].ProductID: got[1].Quantity}
	assert.Equal(t, 3, totals[a])
	assert.Equal(t, 6, totals[b])
	assert.True(t, got[0].ProductID.String() < got[1].ProductID.String())
}
