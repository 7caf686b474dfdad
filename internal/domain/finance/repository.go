package finance

import (
	"context"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	// FindByID finds a bank account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// FindByIDForUpdate loads the account holding an exclusive row lock for
	// the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// FindAll lists all bank accounts ordered by name
	FindAll(ctx context.Context) ([]BankAccount, error)

	// Create inserts a new account
	Create(ctx context.Context, account *BankAccount) error

	// SaveWithLock persists the balance with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *BankAccount) error
}

// TransactionRepository is the append-only transaction log. There is no
// update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindByAccount lists an account's transactions, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]Transaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	// SumSignedByAccount returns Σ(in) − Σ(out) over the account's whole log
	SumSignedByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	// FindByCause lists transactions posted for a cause entity
	FindByCause(ctx context.Context, cause Cause) ([]Transaction, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindBySourceOrder returns ErrInvoiceNotFound when the order has no invoice
	FindBySourceOrder(ctx context.Context, orderType SourceOrderType, orderID uuid.UUID) (*Invoice, error)
	// FindAll lists invoices; supported filters are "status" and "source_order_type"
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Create(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	FindAll(ctx context.Context, filter shared.Filter) ([]Expense, error)
}

// CategoryTotal is the sum of expenses in one category
type CategoryTotal struct {
	Category ExpenseCategory
	Total    decimal.Decimal
	Count    int64
}

// CashFlow is the sum of money in and out over a period
type CashFlow struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// InvoiceTotals summarizes unpaid invoices of one order type
type InvoiceTotals struct {
	Count int64
	Total decimal.Decimal
}

// CurrencyTotal is the summed balance of the accounts held in one currency
type CurrencyTotal struct {
	Currency valueobject.Currency
	Accounts int64
	Total    decimal.Decimal
}

// ReportRepository serves the read-only dashboard projections. Expense and
// cash flow sums only cover accounts held in the given currency.
type ReportRepository interface {
	SumExpensesByCategory(ctx context.Context, currency valueobject.Currency, from, to time.Time) ([]CategoryTotal, error)
	// SumCashFlow sums transactions dated in [from, to); adjustments are excluded
	SumCashFlow(ctx context.Context, currency valueobject.Currency, from, to time.Time) (CashFlow, error)
	SumUnpaidInvoices(ctx context.Context, orderType SourceOrderType) (InvoiceTotals, error)
	// SumBalances groups account balances by currency, ordered by currency code
	SumBalances(ctx context.Context) ([]CurrencyTotal, error)
}
