package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines() []InvoiceLine {
	return []InvoiceLine{
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("50.00")},
	}
}

func TestNewInvoice(t *testing.T) {
	t.Run("computes subtotal, tax and total", func(t *testing.T) {
		policy, err := NewTaxPolicy(decimal.RequireFromString("0.14"))
		require.NoError(t, err)

		inv, err := NewInvoice("INV-1", SourceOrderTypeSales, uuid.New(), testLines(), policy, time.Now().AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Equal(t, "250.00", inv.Subtotal.StringFixed(2))
		assert.Equal(t, "35.00", inv.Tax.StringFixed(2))
		assert.Equal(t, "285.00", inv.Total.StringFixed(2))
		assert.Equal(t, InvoiceStatusUnpaid, inv.Status)
		assert.Equal(t, "200.00", inv.Lines[0].Amount.StringFixed(2))
		require.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("zero tax policy", func(t *testing.T) {
		inv, err := NewInvoice("INV-2", SourceOrderTypePurchase, uuid.New(), testLines(), TaxPolicy{}, time.Now())
		require.NoError(t, err)
		assert.True(t, inv.Total.Equal(inv.Subtotal))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewInvoice("", SourceOrderTypeSales, uuid.New(), testLines(), TaxPolicy{}, time.Now())
		assert.Error(t, err)
		_, err = NewInvoice("INV-3", "rental", uuid.New(), testLines(), TaxPolicy{}, time.Now())
		assert.Error(t, err)
		_, err = NewInvoice("INV-3", SourceOrderTypeSales, uuid.Nil, testLines(), TaxPolicy{}, time.Now())
		assert.Error(t, err)
		_, err = NewInvoice("INV-3", SourceOrderTypeSales, uuid.New(), nil, TaxPolicy{}, time.Now())
		assert.Error(t, err)
	})
}

func TestTaxPolicy(t *testing.T) {
	_, err := NewTaxPolicy(decimal.RequireFromString("-0.01"))
	assert.Error(t, err)
	_, err = NewTaxPolicy(decimal.RequireFromString("1.5"))
	assert.Error(t, err)

	policy, err := NewTaxPolicy(decimal.RequireFromString("0.14"))
	require.NoError(t, err)
	assert.Equal(t, "0.14", policy.TaxFor(decimal.RequireFromString("1.00")).StringFixed(2))
	assert.Equal(t, "0.02", policy.TaxFor(decimal.RequireFromString("0.125")).StringFixed(2))
}

func TestInvoice_PaymentDirection(t *testing.T) {
	assert.Equal(t, DirectionIn, SourceOrderTypeSales.PaymentDirection())
	assert.Equal(t, DirectionOut, SourceOrderTypePurchase.PaymentDirection())
}

func TestInvoice_MarkPaid(t *testing.T) {
	inv, err := NewInvoice("INV-1", SourceOrderTypeSales, uuid.New(), testLines(), TaxPolicy{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	accountID := uuid.New()
	tx := &Transaction{ID: uuid.New(), BankAccountID: accountID, Direction: DirectionIn, Amount: inv.Total}

	require.NoError(t, inv.MarkPaid(accountID, tx))
	assert.True(t, inv.IsPaid())
	assert.Equal(t, tx.ID, *inv.PaymentTransactionID)
	assert.Equal(t, accountID, *inv.PaidFromAccountID)
	assert.False(t, inv.IsOverdue(time.Now().Add(48*time.Hour)))

	err = inv.MarkPaid(accountID, tx)
	assert.True(t, errors.Is(err, shared.ErrAlreadyPaid))
}
