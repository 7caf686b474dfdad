package inventory

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// CauseType identifies what kind of operation moved stock
type CauseType string

const (
	CauseTypePurchaseOrder CauseType = "purchase_order"
	CauseTypeSalesOrder    CauseType = "sales_order"
	CauseTypeAdjustment    CauseType = "adjustment"
	CauseTypeOpening       CauseType = "opening"
)

// IsValid returns true if the cause type is known
func (t CauseType) IsValid() bool {
	switch t {
	case CauseTypePurchaseOrder, CauseTypeSalesOrder, CauseTypeAdjustment, CauseTypeOpening:
		return true
	}
	return false
}

// StockCause links a stock movement to the entity that caused it
type StockCause struct {
	Type  CauseType `json:"type"`
	RefID uuid.UUID `json:"ref_id"`
	Note  string    `json:"note,omitempty"`
}

// Validate checks the cause is usable
func (c StockCause) Validate() error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("INVALID_CAUSE", "Stock movement cause type is invalid")
	}
	if c.RefID == uuid.Nil {
		return shared.NewDomainError("INVALID_CAUSE", "Stock movement cause reference cannot be empty")
	}
	return nil
}

// StockMovement is an append-only record of a stock change
type StockMovement struct {
	ID          uuid.UUID
	StockItemID uuid.UUID
	Delta       int
	BalanceFrom int
	BalanceTo   int
	CauseType   CauseType
	CauseID     uuid.UUID
	Note        string
	CreatedAt   time.Time
}

// NewStockMovement records a change already applied to item
func NewStockMovement(item *StockItem, delta, before int, cause StockCause) *StockMovement {
	return &StockMovement{
		ID:          uuid.New(),
		StockItemID: item.ID,
		Delta:       delta,
		BalanceFrom: before,
		BalanceTo:   item.CurrentStock,
		CauseType:   cause.Type,
		CauseID:     cause.RefID,
		Note:        cause.Note,
		CreatedAt:   time.Now(),
	}
}
