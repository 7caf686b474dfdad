package models

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	AggregateModel
	SKU                 string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                string          `gorm:"type:varchar(200);not null"`
	CurrentStock        int             `gorm:"not null;default:0;check:chk_stock_items_current_stock,current_stock >= 0"`
	MinStockLevel       int             `gorm:"not null;default:0"`
	UnitCost            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PreferredSupplierID *uuid.UUID      `gorm:"type:uuid"`
	LastSupplierID      *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	return &inventory.StockItem{
		BaseAggregateRoot:   m.ToAggregateRoot(),
		SKU:                 m.SKU,
		Name:                m.Name,
		CurrentStock:        m.CurrentStock,
		MinStockLevel:       m.MinStockLevel,
		UnitCost:            m.UnitCost,
		PreferredSupplierID: m.PreferredSupplierID,
		LastSupplierID:      m.LastSupplierID,
	}
}

// FromDomain populates the persistence model from a domain StockItem
func (m *StockItemModel) FromDomain(s *inventory.StockItem) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SKU = s.SKU
	m.Name = s.Name
	m.CurrentStock = s.CurrentStock
	m.MinStockLevel = s.MinStockLevel
	m.UnitCost = s.UnitCost
	m.PreferredSupplierID = s.PreferredSupplierID
	m.LastSupplierID = s.LastSupplierID
}

// StockItemModelFromDomain creates a new persistence model from domain entity
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{}
	m.FromDomain(s)
	return m
}

// StockMovementModel is an append-only row of the stock ledger
type StockMovementModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key"`
	StockItemID uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_item_created,priority:1"`
	Delta       int                 `gorm:"not null"`
	BalanceFrom int                 `gorm:"not null"`
	BalanceTo   int                 `gorm:"not null"`
	CauseType   inventory.CauseType `gorm:"type:varchar(20);not null"`
	CauseID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Note        string              `gorm:"type:varchar(500)"`
	CreatedAt   time.Time           `gorm:"not null;index:idx_stock_movements_item_created,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:          m.ID,
		StockItemID: m.StockItemID,
		Delta:       m.Delta,
		BalanceFrom: m.BalanceFrom,
		BalanceTo:   m.BalanceTo,
		CauseType:   m.CauseType,
		CauseID:     m.CauseID,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from domain entity
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:          mv.ID,
		StockItemID: mv.StockItemID,
		Delta:       mv.Delta,
		BalanceFrom: mv.BalanceFrom,
		BalanceTo:   mv.BalanceTo,
		CauseType:   mv.CauseType,
		CauseID:     mv.CauseID,
		Note:        mv.Note,
		CreatedAt:   mv.CreatedAt,
	}
}
