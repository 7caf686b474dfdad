package finance

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the sign of a ledger transaction relative to its account
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// IsValid returns true for in and out
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// CauseType identifies the entity that caused a balance change
type CauseType string

const (
	CauseTypeInvoice    CauseType = "invoice"
	CauseTypeExpense    CauseType = "expense"
	CauseTypeAdjustment CauseType = "adjustment"
)

// IsValid returns true if the cause type is known
func (c CauseType) IsValid() bool {
	switch c {
	case CauseTypeInvoice, CauseTypeExpense, CauseTypeAdjustment:
		return true
	}
	return false
}

// Cause references the entity a transaction was posted for
type Cause struct {
	Type CauseType
	ID   uuid.UUID
}

// InvoiceCause builds a cause for an invoice payment
func InvoiceCause(invoiceID uuid.UUID) Cause {
	return Cause{Type: CauseTypeInvoice, ID: invoiceID}
}

// ExpenseCause builds a cause for an expense
func ExpenseCause(expenseID uuid.UUID) Cause {
	return Cause{Type: CauseTypeExpense, ID: expenseID}
}

// AdjustmentCause builds a cause for a manual adjustment or opening balance
func AdjustmentCause(ref uuid.UUID) Cause {
	return Cause{Type: CauseTypeAdjustment, ID: ref}
}

// Validate checks the cause is usable
func (c Cause) Validate() error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("INVALID_CAUSE", "Transaction cause type is invalid")
	}
	if c.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_CAUSE", "Transaction cause reference cannot be empty")
	}
	return nil
}

// Transaction is an immutable entry of the transaction log. Transactions are
// only ever created, never updated or deleted.
type Transaction struct {
	ID            uuid.UUID
	BankAccountID uuid.UUID
	Direction     Direction
	Amount        decimal.Decimal
	// BalanceAfter is the account balance once this transaction applied
	BalanceAfter decimal.Decimal
	Notes        string
	CauseType    CauseType
	CauseID      uuid.UUID
	Date         time.Time
	CreatedAt    time.Time
}

// SignedAmount returns +amount for in and -amount for out
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}

// SumSigned returns the running sum of transactions, which is the balance
// an account must hold after exactly these transactions
func SumSigned(transactions []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		sum = sum.Add(t.SignedAmount())
	}
	return sum
}
