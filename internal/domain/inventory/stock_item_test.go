package inventory

import (
	"errors"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStockItem(t *testing.T, stock, min int) *StockItem {
	item, err := NewStockItem("SKU-001", "Widget", min, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	if stock > 0 {
		_, err = item.Adjust(stock, StockCause{Type: CauseTypeOpening, RefID: item.ID})
		require.NoError(t, err)
	}
	item.ClearDomainEvents()
	return item
}

func TestNewStockItem(t *testing.T) {
	tests := []struct {
		name    string
		sku     string
		pname   string
		min     int
		cost    string
		wantErr string
	}{
		{"valid", "SKU-1", "Widget", 5, "1.00", ""},
		{"empty sku", " ", "Widget", 5, "1.00", "INVALID_SKU"},
		{"empty name", "SKU-1", "", 5, "1.00", "INVALID_NAME"},
		{"negative min", "SKU-1", "Widget", -1, "1.00", "INVALID_MIN_STOCK"},
		{"negative cost", "SKU-1", "Widget", 1, "-0.01", "INVALID_COST"},
		{"cost finer than cents", "SKU-1", "Widget", 1, "1.2345", "INVALID_COST"},
		{"trailing zeros", "SKU-1", "Widget", 1, "1.2000", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewStockItem(tt.sku, tt.pname, tt.min, decimal.RequireFromString(tt.cost))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 0, item.CurrentStock)
				assert.Equal(t, 1, item.Version)
				return
			}
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.wantErr, domainErr.Code)
		})
	}
}

func TestStockItem_Adjust(t *testing.T) {
	t.Run("increments and records movement", func(t *testing.T) {
		item := createTestStockItem(t, 10, 5)
		ref := uuid.New()

		movement, err := item.Adjust(4, StockCause{Type: CauseTypePurchaseOrder, RefID: ref})
		require.NoError(t, err)
		assert.Equal(t, 14, item.CurrentStock)
		assert.Equal(t, 10, movement.BalanceFrom)
		assert.Equal(t, 14, movement.BalanceTo)
		assert.Equal(t, ref, movement.CauseID)
		require.Len(t, item.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeStockAdjusted, item.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects going negative without clamping", func(t *testing.T) {
		item := createTestStockItem(t, 3, 0)

		_, err := item.Adjust(-4, StockCause{Type: CauseTypeSalesOrder, RefID: uuid.New()})
		assert.True(t, errors.Is(err, shared.ErrNegativeStock))
		assert.Equal(t, 3, item.CurrentStock)
		assert.Empty(t, item.GetDomainEvents())
	})

	t.Run("decrement to exactly zero is allowed", func(t *testing.T) {
		item := createTestStockItem(t, 3, 0)
		_, err := item.Adjust(-3, StockCause{Type: CauseTypeSalesOrder, RefID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 0, item.CurrentStock)
	})

	t.Run("emits below threshold event on decrement", func(t *testing.T) {
		item := createTestStockItem(t, 10, 5)
		_, err := item.Adjust(-6, StockCause{Type: CauseTypeSalesOrder, RefID: uuid.New()})
		require.NoError(t, err)

		events := item.GetDomainEvents()
		require.Len(t, events, 2)
		below, ok := events[1].(*StockBelowThresholdEvent)
		require.True(t, ok)
		assert.Equal(t, 4, below.CurrentStock)
		assert.Equal(t, 5, below.MinStockLevel)
	})

	t.Run("increment below threshold does not emit", func(t *testing.T) {
		item := createTestStockItem(t, 1, 5)
		_, err := item.Adjust(1, StockCause{Type: CauseTypeAdjustment, RefID: uuid.New()})
		require.NoError(t, err)
		assert.Len(t, item.GetDomainEvents(), 1)
	})

	t.Run("rejects zero delta and missing cause", func(t *testing.T) {
		item := createTestStockItem(t, 1, 0)
		_, err := item.Adjust(0, StockCause{Type: CauseTypeAdjustment, RefID: uuid.New()})
		assert.Error(t, err)
		_, err = item.Adjust(1, StockCause{Type: CauseTypeAdjustment})
		assert.Error(t, err)
		_, err = item.Adjust(1, StockCause{Type: "gift", RefID: uuid.New()})
		assert.Error(t, err)
	})
}

func TestStockItem_Reorder(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		min       int
		needs     bool
		suggested int
	}{
		{"above threshold", 10, 5, false, 0},
		{"at threshold", 5, 5, false, 0},
		{"below threshold", 4, 5, true, 6},
		{"empty", 0, 5, true, 10},
		{"no threshold", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := createTestStockItem(t, tt.stock, tt.min)
			check := item.CheckReorder()
			assert.Equal(t, tt.needs, check.NeedsReorder)
			assert.Equal(t, tt.suggested, check.SuggestedQuantity)
		})
	}
}

func TestStockItem_ReorderSupplier(t *testing.T) {
	item := createTestStockItem(t, 0, 5)

	_, ok := item.ReorderSupplier()
	assert.False(t, ok)

	last := uuid.New()
	item.RecordSupplier(last)
	got, ok := item.ReorderSupplier()
	require.True(t, ok)
	assert.Equal(t, last, got)

	preferred := uuid.New()
	item.SetPreferredSupplier(&preferred)
	got, _ = item.ReorderSupplier()
	assert.Equal(t, preferred, got)

	check := item.CheckReorder()
	require.NotNil(t, check.SupplierID)
	assert.Equal(t, preferred, *check.SupplierID)
}
