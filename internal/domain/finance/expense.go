package finance

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryRent        ExpenseCategory = "rent"
	ExpenseCategoryUtilities   ExpenseCategory = "utilities"
	ExpenseCategorySalary      ExpenseCategory = "salary"
	ExpenseCategoryOffice      ExpenseCategory = "office"
	ExpenseCategoryTravel      ExpenseCategory = "travel"
	ExpenseCategoryMarketing   ExpenseCategory = "marketing"
	ExpenseCategoryEquipment   ExpenseCategory = "equipment"
	ExpenseCategoryMaintenance ExpenseCategory = "maintenance"
	ExpenseCategoryTax         ExpenseCategory = "tax"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryRent, ExpenseCategoryUtilities, ExpenseCategorySalary,
		ExpenseCategoryOffice, ExpenseCategoryTravel, ExpenseCategoryMarketing,
		ExpenseCategoryEquipment, ExpenseCategoryMaintenance, ExpenseCategoryTax,
		ExpenseCategoryOther:
		return true
	}
	return false
}

// Expense is money paid out of a bank account outside the order flows.
// Recording one debits the account through the ledger.
type Expense struct {
	ID            uuid.UUID
	Category      ExpenseCategory
	Amount        decimal.Decimal
	BankAccountID uuid.UUID
	TransactionID uuid.UUID
	Notes         string
	IncurredAt    time.Time
	CreatedAt     time.Time
}

// NewExpense validates and creates an expense; TransactionID is set once the debit is posted
func NewExpense(category ExpenseCategory, amount decimal.Decimal, accountID uuid.UUID, notes string, incurredAt time.Time) (*Expense, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category is invalid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if !valueobject.WithinPrecision(amount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount cannot have more than 2 decimal places")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank account ID cannot be empty")
	}
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}
	return &Expense{
		ID:            uuid.New(),
		Category:      category,
		Amount:        amount,
		BankAccountID: accountID,
		Notes:         notes,
		IncurredAt:    incurredAt,
		CreatedAt:     time.Now(),
	}, nil
}
