package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct {
	alerts []StockAlert
	err    error
}

func (n *recordingNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.alerts = append(n.alerts, alert)
	return n.err
}

func belowThresholdEvent(t *testing.T, stock, minLevel int) *inventory.StockBelowThresholdEvent {
	t.Helper()
	item, err := inventory.NewStockItem("SKU-1", "Widget", minLevel, decimal.NewFromInt(1))
	require.NoError(t, err)
	item.CurrentStock = stock
	return inventory.NewStockBelowThresholdEvent(item)
}

func TestStockBelowThresholdHandler_Handle(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		severity  AlertSeverity
		shortfall int
	}{
		{"low stock", 2, SeverityLowStock, 3},
		{"out of stock", 0, SeverityOutOfStock, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			h := NewStockBelowThresholdHandler(zaptest.NewLogger(t)).WithNotifier(notifier)

			require.NoError(t, h.Handle(context.Background(), belowThresholdEvent(t, tt.stock, 5)))

			require.Len(t, notifier.alerts, 1)
			alert := notifier.alerts[0]
			assert.Equal(t, tt.severity, alert.Severity)
			assert.Equal(t, "SKU-1", alert.SKU)
			assert.Equal(t, 5, alert.Minimum)
			assert.Equal(t, tt.shortfall, alert.Shortfall)
		})
	}
}

func TestStockBelowThresholdHandler_NotifierFailureIsSwallowed(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	h := NewStockBelowThresholdHandler(zaptest.NewLogger(t)).WithNotifier(notifier)

	assert.NoError(t, h.Handle(context.Background(), belowThresholdEvent(t, 1, 3)))
	assert.Len(t, notifier.alerts, 1)
}

func TestLoggingStockAlertNotifier(t *testing.T) {
	n := NewLoggingStockAlertNotifier(zaptest.NewLogger(t))
	assert.NoError(t, n.SendAlert(context.Background(), StockAlert{SKU: "SKU-1", Shortfall: 4, Severity: SeverityLowStock}))
}

func TestStockBelowThresholdHandler_RejectsOtherEvents(t *testing.T) {
	h := NewStockBelowThresholdHandler(zaptest.NewLogger(t))
	other := shared.NewBaseDomainEvent("SomethingElse", "stock_item", uuid.New())

	assert.Equal(t, []string{inventory.EventTypeStockBelowThreshold}, h.EventTypes())
	assert.Error(t, h.Handle(context.Background(), &other))
}
