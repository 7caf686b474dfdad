package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	EGP Currency = "EGP" // Egyptian Pound (default)
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is the ledger's base currency
const DefaultCurrency = EGP

// DisplayPlaces is the number of decimals amounts are rounded to for display and tax
const DisplayPlaces int32 = 2

// AmountPlaces is the finest precision an entered amount may carry. Prices,
// costs and postings finer than this are rejected rather than rounded.
const AmountPlaces = DisplayPlaces

// WithinPrecision reports whether d has no non-zero digits past AmountPlaces
func WithinPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountPlaces))
}

// ParseCurrency validates code against ISO 4217 and returns its canonical form
func ParseCurrency(code string) (Currency, error) {
	if strings.TrimSpace(code) == "" {
		return "", errors.New("currency cannot be empty")
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// ErrCurrencyMismatch is returned when two amounts in different currencies
// are combined
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an exact decimal amount tagged with its currency. Values are
// immutable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, cur Currency) (Money, error) {
	if cur == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: cur}, nil
}

func NewMoneyFromString(amount string, cur Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, cur)
}

// MustMoney panics on a malformed amount. Tests and fixtures only.
func MustMoney(amount string, cur Currency) Money {
	m, err := NewMoneyFromString(amount, cur)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(cur Currency) Money { return Money{amount: decimal.Zero, currency: cur} }

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

func (m Money) checkCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%s %s and %s: %w", op, m.currency, other.currency, ErrCurrencyMismatch)
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency("add", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(other.amount)), nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Sub(other.amount)), nil
}

func (m Money) LessThan(other Money) (bool, error) {
	if err := m.checkCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// RoundBank applies banker's rounding, the rounding used for tax lines
func (m Money) RoundBank(places int32) Money { return m.with(m.amount.RoundBank(places)) }

func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the amount at display precision followed by the code
func (m Money) String() string {
	return m.amount.StringFixed(DisplayPlaces) + " " + string(m.currency)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"amount":   m.amount.StringFixed(DisplayPlaces),
		"currency": string(m.currency),
	})
}
