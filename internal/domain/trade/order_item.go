package trade

import (
	"bytes"
	"sort"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line item owned by a purchase or sales order.
// It has no lifecycle of its own.
type OrderItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewOrderItem creates a validated order line
func NewOrderItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	if productID == uuid.Nil {
		return OrderItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !valueobject.WithinPrecision(unitPrice) {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot have more than 2 decimal places")
	}
	return OrderItem{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Amount returns quantity × unit price
func (i OrderItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems returns Σ quantity × unit price
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}

// QuantitiesByProduct merges lines for the same product and returns them
// ordered by product ID, which is the order stock rows are locked and
// adjusted in.
func QuantitiesByProduct(items []OrderItem) []ProductQuantity {
	totals := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}
	result := make([]ProductQuantity, 0, len(totals))
	for productID, qty := range totals {
		result = append(result, ProductQuantity{ProductID: productID, Quantity: qty})
	}
	sort.Slice(result, func(a, b int) bool {
		return bytes.Compare(result[a].ProductID[:], result[b].ProductID[:]) < 0
	})
	return result
}

// ProductQuantity is an aggregated quantity for a single product
type ProductQuantity struct {
	ProductID uuid.UUID
	Quantity  int
}

func validateItems(items []OrderItem) error {
	for _, item := range items {
		if _, err := NewOrderItem(item.ProductID, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}
