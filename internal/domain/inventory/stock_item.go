package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is the aggregate root tracking on-hand quantity and the reorder
// threshold of a single product. CurrentStock is never negative.
type StockItem struct {
	shared.BaseAggregateRoot
	SKU                 string
	Name                string
	CurrentStock        int
	MinStockLevel       int
	UnitCost            decimal.Decimal
	PreferredSupplierID *uuid.UUID
	// LastSupplierID is the supplier of the most recently received purchase order
	LastSupplierID *uuid.UUID
}

// NewStockItem creates a product with zero stock
func NewStockItem(sku, name string, minStockLevel int, unitCost decimal.Decimal) (*StockItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if minStockLevel < 0 {
		return nil, shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock level cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if !valueobject.WithinPrecision(unitCost) {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot have more than 2 decimal places")
	}

	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		MinStockLevel:     minStockLevel,
		UnitCost:          unitCost,
	}, nil
}

// Adjust changes the on-hand quantity by delta. A result below zero is
// rejected with ErrNegativeStock and the item is left untouched.
// It returns the movement to record in the stock ledger.
func (s *StockItem) Adjust(delta int, cause StockCause) (*StockMovement, error) {
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	if err := cause.Validate(); err != nil {
		return nil, err
	}
	after := s.CurrentStock + delta
	if after < 0 {
		return nil, shared.ErrNegativeStock.Errorf(
			"Adjusting %s by %d would leave %d units in stock", s.SKU, delta, after)
	}

	before := s.CurrentStock
	s.CurrentStock = after
	s.Touch()

	movement := NewStockMovement(s, delta, before, cause)
	s.AddDomainEvent(NewStockAdjustedEvent(s, delta, before, cause))
	if delta < 0 && s.NeedsReorder() {
		s.AddDomainEvent(NewStockBelowThresholdEvent(s))
	}
	return movement, nil
}

// CanSupply reports whether quantity can be taken out without going negative
func (s *StockItem) CanSupply(quantity int) bool {
	return quantity <= s.CurrentStock
}

// NeedsReorder reports whether stock is below the minimum level
func (s *StockItem) NeedsReorder() bool {
	return s.CurrentStock < s.MinStockLevel
}

// SuggestedReorderQuantity brings stock up to twice the minimum level
func (s *StockItem) SuggestedReorderQuantity() int {
	qty := 2*s.MinStockLevel - s.CurrentStock
	if qty < 0 {
		return 0
	}
	return qty
}

// ReorderSupplier returns the supplier an automatic reorder is placed with:
// the preferred supplier, else the last supplier goods were received from.
func (s *StockItem) ReorderSupplier() (uuid.UUID, bool) {
	if s.PreferredSupplierID != nil && *s.PreferredSupplierID != uuid.Nil {
		return *s.PreferredSupplierID, true
	}
	if s.LastSupplierID != nil && *s.LastSupplierID != uuid.Nil {
		return *s.LastSupplierID, true
	}
	return uuid.Nil, false
}

// SetPreferredSupplier sets or clears the preferred supplier
func (s *StockItem) SetPreferredSupplier(supplierID *uuid.UUID) {
	s.PreferredSupplierID = supplierID
	s.Touch()
}

// RecordSupplier remembers the supplier goods were last received from
func (s *StockItem) RecordSupplier(supplierID uuid.UUID) {
	if supplierID == uuid.Nil {
		return
	}
	s.LastSupplierID = &supplierID
	s.Touch()
}

// SetMinStockLevel updates the reorder threshold
func (s *StockItem) SetMinStockLevel(level int) error {
	if level < 0 {
		return shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock level cannot be negative")
	}
	s.MinStockLevel = level
	s.Touch()
	return nil
}

// ReorderCheck is the result of evaluating a product against its threshold
type ReorderCheck struct {
	ProductID         uuid.UUID  `json:"product_id"`
	SKU               string     `json:"sku"`
	CurrentStock      int        `json:"current_stock"`
	MinStockLevel     int        `json:"min_stock_level"`
	NeedsReorder      bool       `json:"needs_reorder"`
	SuggestedQuantity int        `json:"suggested_quantity"`
	SupplierID        *uuid.UUID `json:"supplier_id,omitempty"`
}

// CheckReorder evaluates the item without changing it
func (s *StockItem) CheckReorder() ReorderCheck {
	check := ReorderCheck{
		ProductID:     s.ID,
		SKU:           s.SKU,
		CurrentStock:  s.CurrentStock,
		MinStockLevel: s.MinStockLevel,
		NeedsReorder:  s.NeedsReorder(),
	}
	if check.NeedsReorder {
		check.SuggestedQuantity = s.SuggestedReorderQuantity()
	}
	if supplierID, ok := s.ReorderSupplier(); ok {
		check.SupplierID = &supplierID
	}
	return check
}

func (s *StockItem) String() string {
	return fmt.Sprintf("StockItem(%s, stock=%d, min=%d)", s.SKU, s.CurrentStock, s.MinStockLevel)
}
