package finance

import (
	"strings"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverdraftPolicy decides whether a debit may take a balance below zero
type OverdraftPolicy struct {
	AllowOverdraft bool
}

// BankAccount is the ledger store aggregate. Balance is a cached value that
// only changes together with an appended Transaction; it always equals the
// signed sum of the account's transactions.
type BankAccount struct {
	shared.BaseAggregateRoot
	Name     string
	Currency valueobject.Currency
	Balance  decimal.Decimal
}

// NewBankAccount creates an account with a zero balance. Opening balances are
// posted afterwards as adjustment credits.
func NewBankAccount(name string, currency valueobject.Currency) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 100 characters")
	}
	cur, err := valueobject.ParseCurrency(string(currency))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	return &BankAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Currency:          cur,
		Balance:           decimal.Zero,
	}, nil
}

// BalanceMoney returns the balance with its currency
func (a *BankAccount) BalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(a.Balance, a.Currency)
	return m
}

// Credit adds amount to the balance and returns the transaction to append
func (a *BankAccount) Credit(amount valueobject.Money, cause Cause, notes string) (*Transaction, error) {
	return a.post(DirectionIn, amount, cause, notes, OverdraftPolicy{})
}

// Debit removes amount from the balance and returns the transaction to append.
// Unless the policy allows overdrafts, a debit larger than the balance fails
// with ErrInsufficientFunds.
func (a *BankAccount) Debit(amount valueobject.Money, cause Cause, notes string, policy OverdraftPolicy) (*Transaction, error) {
	return a.post(DirectionOut, amount, cause, notes, policy)
}

// Post applies a transaction in the given direction
func (a *BankAccount) Post(direction Direction, amount valueobject.Money, cause Cause, notes string, policy OverdraftPolicy) (*Transaction, error) {
	return a.post(direction, amount, cause, notes, policy)
}

func (a *BankAccount) post(direction Direction, amount valueobject.Money, cause Cause, notes string, policy OverdraftPolicy) (*Transaction, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Transaction direction must be in or out")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if !valueobject.WithinPrecision(amount.Amount()) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot have more than 2 decimal places")
	}
	if amount.Currency() != a.Currency {
		return nil, shared.NewDomainError("CURRENCY_MISMATCH",
			"Transaction currency "+string(amount.Currency())+" does not match account currency "+string(a.Currency))
	}
	if err := cause.Validate(); err != nil {
		return nil, err
	}

	newBalance := a.Balance.Add(amount.Amount())
	if direction == DirectionOut {
		newBalance = a.Balance.Sub(amount.Amount())
		if newBalance.IsNegative() && !policy.AllowOverdraft {
			return nil, shared.ErrInsufficientFunds.Errorf(
				"Account %s holds %s, cannot pay out %s", a.Name, a.BalanceMoney(), amount)
		}
	}

	now := time.Now()
	previous := a.Balance
	a.Balance = newBalance
	a.Touch()

	tx := &Transaction{
		ID:            uuid.New(),
		BankAccountID: a.ID,
		Direction:     direction,
		Amount:        amount.Amount(),
		BalanceAfter:  newBalance,
		Notes:         notes,
		CauseType:     cause.Type,
		CauseID:       cause.ID,
		Date:          now,
		CreatedAt:     now,
	}
	a.AddDomainEvent(NewAccountBalanceChangedEvent(a, tx, previous))
	return tx, nil
}

// Reconcile compares the cached balance with the signed sum of the log
func (a *BankAccount) Reconcile(logSum decimal.Decimal) error {
	if !a.Balance.Equal(logSum) {
		return shared.ErrLedgerDrift.Errorf(
			"Account %s balance %s differs from transaction log sum %s",
			a.Name, a.Balance.StringFixed(valueobject.DisplayPlaces), logSum.StringFixed(valueobject.DisplayPlaces))
	}
	return nil
}
