package common

import (
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a ledger amount with the two display decimals used on the wire
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(valueobject.DisplayPlaces)
}
