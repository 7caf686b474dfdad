package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code", func(t *testing.T) {
		err := ErrInsufficientStock.Errorf("product %s: requested %d, available %d", "SKU-1", 6, 4)
		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.False(t, errors.Is(err, ErrNegativeStock))
		assert.Equal(t, "product SKU-1: requested 6, available 4", err.Error())
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("pay invoice: %w", ErrAlreadyPaid)
		assert.True(t, errors.Is(err, ErrAlreadyPaid))

		var domainErr *DomainError
		assert.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALREADY_PAID", domainErr.Code)
	})

	t.Run("plain errors never match", func(t *testing.T) {
		assert.False(t, errors.Is(errors.New("INVALID_TRANSITION"), ErrInvalidTransition))
	})
}

func TestCaller_Has(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		cap    Capability
		want   bool
	}{
		{"explicit capability", Caller{Capabilities: []Capability{CapInvoicePay}}, CapInvoicePay, true},
		{"missing capability", Caller{Capabilities: []Capability{CapInvoicePay}}, CapPurchaseOrderOrder, false},
		{"wildcard", Caller{Capabilities: []Capability{CapAll}}, CapStockAdjust, true},
		{"system caller", SystemCaller(), CapPurchaseOrderCreate, true},
		{"anonymous", Caller{}, CapSalesOrderConfirm, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.caller.Has(tt.cap))
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2, 3}, 41, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, DefaultFilter().Offset())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())

	empty := NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
