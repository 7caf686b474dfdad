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

func TestNewExpense(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name     string
		category ExpenseCategory
		amount   string
		account  uuid.UUID
		wantErr  string
	}{
		{"valid", ExpenseCategoryRent, "1500.50", accountID, ""},
		{"unknown category", ExpenseCategory("fun"), "10", accountID, "INVALID_CATEGORY"},
		{"zero amount", ExpenseCategoryOffice, "0", accountID, "INVALID_AMOUNT"},
		{"sub-cent amount", ExpenseCategoryOffice, "0.00001", accountID, "INVALID_AMOUNT"},
		{"three decimals", ExpenseCategoryOffice, "10.125", accountID, "INVALID_AMOUNT"},
		{"missing account", ExpenseCategoryOffice, "10", uuid.Nil, "INVALID_ACCOUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense, err := NewExpense(tt.category, decimal.RequireFromString(tt.amount), tt.account, "", time.Time{})
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.False(t, expense.IncurredAt.IsZero())
				return
			}
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.wantErr, domainErr.Code)
		})
	}
}
