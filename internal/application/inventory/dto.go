package inventory

import (
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateStockItemRequest represents a request to register a product for stock tracking
type CreateStockItemRequest struct {
	SKU                 string          `json:"sku"`
	Name                string          `json:"name"`
	MinStockLevel       int             `json:"min_stock_level"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	OpeningStock        int             `json:"opening_stock"`
	PreferredSupplierID *uuid.UUID      `json:"preferred_supplier_id"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID                  uuid.UUID  `json:"id"`
	SKU                 string     `json:"sku"`
	Name                string     `json:"name"`
	CurrentStock        int        `json:"current_stock"`
	MinStockLevel       int        `json:"min_stock_level"`
	NeedsReorder        bool       `json:"needs_reorder"`
	UnitCost            string     `json:"unit_cost"`
	PreferredSupplierID *uuid.UUID `json:"preferred_supplier_id,omitempty"`
	LastSupplierID      *uuid.UUID `json:"last_supplier_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Version             int        `json:"version"`
}

// ToStockItemResponse converts a domain StockItem to its response DTO
func ToStockItemResponse(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:                  item.ID,
		SKU:                 item.SKU,
		Name:                item.Name,
		CurrentStock:        item.CurrentStock,
		MinStockLevel:       item.MinStockLevel,
		NeedsReorder:        item.NeedsReorder(),
		UnitCost:            common.FormatAmount(item.UnitCost),
		PreferredSupplierID: item.PreferredSupplierID,
		LastSupplierID:      item.LastSupplierID,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
		Version:             item.Version,
	}
}

// ToStockItemResponses converts a slice of stock items
func ToStockItemResponses(items []inventory.StockItem) []StockItemResponse {
	responses := make([]StockItemResponse, len(items))
	for i := range items {
		responses[i] = ToStockItemResponse(&items[i])
	}
	return responses
}

// StockMovementResponse represents one entry of the stock ledger
type StockMovementResponse struct {
	ID          uuid.UUID `json:"id"`
	StockItemID uuid.UUID `json:"stock_item_id"`
	Delta       int       `json:"delta"`
	BalanceFrom int       `json:"balance_from"`
	BalanceTo   int       `json:"balance_to"`
	CauseType   string    `json:"cause_type"`
	CauseID     uuid.UUID `json:"cause_id"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToStockMovementResponse converts a domain StockMovement to its response DTO
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:          m.ID,
		StockItemID: m.StockItemID,
		Delta:       m.Delta,
		BalanceFrom: m.BalanceFrom,
		BalanceTo:   m.BalanceTo,
		CauseType:   string(m.CauseType),
		CauseID:     m.CauseID,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}

// StockChange summarizes one product's stock change caused by an operation
type StockChange struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Delta     int       `json:"delta"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
}

// ToStockChange converts a movement to a side effect summary entry
func ToStockChange(item *inventory.StockItem, m *inventory.StockMovement) StockChange {
	return StockChange{
		ProductID: item.ID,
		SKU:       item.SKU,
		Delta:     m.Delta,
		Before:    m.BalanceFrom,
		After:     m.BalanceTo,
	}
}

// AdjustStockResponse is the result of a manual adjustment
type AdjustStockResponse struct {
	Item     StockItemResponse     `json:"item"`
	Movement StockMovementResponse `json:"movement"`
	// ReorderID is set when the adjustment produced an auto-generated purchase order
	ReorderID *uuid.UUID `json:"reorder_id,omitempty"`
}
