package finance

import (
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TaxPolicy computes invoice tax as a flat rate of the subtotal
type TaxPolicy struct {
	Rate decimal.Decimal
}

// NewTaxPolicy validates a rate expressed as a fraction (0.14 for 14%)
func NewTaxPolicy(rate decimal.Decimal) (TaxPolicy, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return TaxPolicy{}, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1")
	}
	return TaxPolicy{Rate: rate}, nil
}

// TaxFor returns the tax for subtotal, banker's-rounded to display precision
func (p TaxPolicy) TaxFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.Rate).RoundBank(valueobject.DisplayPlaces)
}
