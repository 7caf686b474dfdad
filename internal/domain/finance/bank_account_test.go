package finance

import (
	"errors"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func egp(amount string) valueobject.Money {
	return valueobject.MustMoney(amount, valueobject.EGP)
}

func createTestAccount(t *testing.T, opening string) *BankAccount {
	account, err := NewBankAccount("Main", valueobject.EGP)
	require.NoError(t, err)
	if opening != "" {
		_, err = account.Credit(egp(opening), AdjustmentCause(account.ID), "opening balance")
		require.NoError(t, err)
	}
	account.ClearDomainEvents()
	return account
}

func TestNewBankAccount(t *testing.T) {
	account, err := NewBankAccount("  Operating  ", "egp")
	require.NoError(t, err)
	assert.Equal(t, "Operating", account.Name)
	assert.Equal(t, valueobject.EGP, account.Currency)
	assert.True(t, account.Balance.IsZero())

	_, err = NewBankAccount("", valueobject.EGP)
	assert.Error(t, err)

	_, err = NewBankAccount("Main", "NOPE")
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_CURRENCY", domainErr.Code)
}

func TestBankAccount_CreditDebit(t *testing.T) {
	account := createTestAccount(t, "1000.00")
	log := []Transaction{{Direction: DirectionIn, Amount: decimal.NewFromInt(1000)}}

	tx, err := account.Credit(egp("250.00"), InvoiceCause(uuid.New()), "sales invoice")
	require.NoError(t, err)
	log = append(log, *tx)
	assert.Equal(t, DirectionIn, tx.Direction)
	assert.Equal(t, "1250.00", account.Balance.StringFixed(2))
	assert.True(t, tx.BalanceAfter.Equal(account.Balance))

	tx, err = account.Debit(egp("500.00"), InvoiceCause(uuid.New()), "purchase invoice", OverdraftPolicy{})
	require.NoError(t, err)
	log = append(log, *tx)
	assert.Equal(t, "750.00", account.Balance.StringFixed(2))
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(-500)))

	assert.True(t, SumSigned(log).Equal(account.Balance))
	assert.NoError(t, account.Reconcile(SumSigned(log)))
	assert.Len(t, account.GetDomainEvents(), 2)
}

func TestBankAccount_Debit_InsufficientFunds(t *testing.T) {
	account := createTestAccount(t, "100.00")

	_, err := account.Debit(egp("100.01"), ExpenseCause(uuid.New()), "", OverdraftPolicy{})
	assert.True(t, errors.Is(err, shared.ErrInsufficientFunds))
	assert.Equal(t, "100.00", account.Balance.StringFixed(2))
	assert.Empty(t, account.GetDomainEvents())

	t.Run("overdraft allowed by policy", func(t *testing.T) {
		tx, err := account.Debit(egp("150.00"), ExpenseCause(uuid.New()), "", OverdraftPolicy{AllowOverdraft: true})
		require.NoError(t, err)
		assert.Equal(t, "-50.00", account.Balance.StringFixed(2))
		assert.Equal(t, "-50.00", tx.BalanceAfter.StringFixed(2))
	})
}

func TestBankAccount_Post_Validation(t *testing.T) {
	account := createTestAccount(t, "10")

	tests := []struct {
		name   string
		amount valueobject.Money
		cause  Cause
		code   string
	}{
		{"zero amount", egp("0"), AdjustmentCause(uuid.New()), "INVALID_AMOUNT"},
		{"negative amount", egp("-5"), AdjustmentCause(uuid.New()), "INVALID_AMOUNT"},
		{"sub-cent amount", egp("0.00001"), AdjustmentCause(uuid.New()), "INVALID_AMOUNT"},
		{"three decimals", egp("1.005"), AdjustmentCause(uuid.New()), "INVALID_AMOUNT"},
		{"wrong currency", valueobject.MustMoney("5", valueobject.USD), AdjustmentCause(uuid.New()), "CURRENCY_MISMATCH"},
		{"missing cause", egp("5"), Cause{Type: CauseTypeInvoice}, "INVALID_CAUSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := account.Credit(tt.amount, tt.cause, "")
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, "10.00", account.Balance.StringFixed(2))
		})
	}
}

func TestBankAccount_Reconcile_Drift(t *testing.T) {
	account := createTestAccount(t, "10")
	err := account.Reconcile(decimal.NewFromInt(9))
	assert.True(t, errors.Is(err, shared.ErrLedgerDrift))
}
