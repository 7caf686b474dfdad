package inventory

import (
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeStockItem = "StockItem"

// Event type constants
const (
	EventTypeStockAdjusted       = "StockAdjusted"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// StockAdjustedEvent is raised on every stock change
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Delta     int       `json:"delta"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	CauseType CauseType `json:"cause_type"`
	CauseID   uuid.UUID `json:"cause_id"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(item *StockItem, delta, before int, cause StockCause) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockItem, item.ID),
		ProductID:       item.ID,
		SKU:             item.SKU,
		Delta:           delta,
		Before:          before,
		After:           item.CurrentStock,
		CauseType:       cause.Type,
		CauseID:         cause.RefID,
	}
}

// StockBelowThresholdEvent is raised when a decrement leaves stock below the minimum level
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	CurrentStock  int       `json:"current_stock"`
	MinStockLevel int       `json:"min_stock_level"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *StockItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeStockItem, item.ID),
		ProductID:       item.ID,
		SKU:             item.SKU,
		CurrentStock:    item.CurrentStock,
		MinStockLevel:   item.MinStockLevel,
	}
}
