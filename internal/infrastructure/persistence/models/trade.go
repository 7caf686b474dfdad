package models

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemModel holds the columns shared by purchase and sales order lines
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

func orderItemModel(orderID uuid.UUID, item trade.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:        item.ID,
		OrderID:   orderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
	}
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber     string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Items           []PurchaseOrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	Status          trade.PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	AutoGenerated   bool                      `gorm:"not null;default:false"`
	SourceProductID *uuid.UUID                `gorm:"type:uuid;index"`
	TotalAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string                    `gorm:"type:text"`
	OrderedAt       *time.Time
	ReceivedAt      *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		Status:            m.Status,
		AutoGenerated:     m.AutoGenerated,
		SourceProductID:   m.SourceProductID,
		TotalAmount:       m.TotalAmount,
		Notes:             m.Notes,
		OrderedAt:         m.OrderedAt,
		ReceivedAt:        m.ReceivedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]trade.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.Status = o.Status
	m.AutoGenerated = o.AutoGenerated
	m.SourceProductID = o.SourceProductID
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.OrderedAt = o.OrderedAt
	m.ReceivedAt = o.ReceivedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]PurchaseOrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = PurchaseOrderItemModel{OrderItemModel: orderItemModel(o.ID, item)}
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from domain entity
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is a purchase order line
type PurchaseOrderItemModel struct {
	OrderItemModel
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber  string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	Items        []SalesOrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	Status       trade.SalesOrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Notes        string                 `gorm:"type:text"`
	ConfirmedAt  *time.Time             `gorm:"index"`
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		Status:            m.Status,
		TotalAmount:       m.TotalAmount,
		Notes:             m.Notes,
		ConfirmedAt:       m.ConfirmedAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]trade.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.ConfirmedAt = o.ConfirmedAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]SalesOrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = SalesOrderItemModel{OrderItemModel: orderItemModel(o.ID, item)}
	}
}

// SalesOrderModelFromDomain creates a new persistence model from domain entity
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderItemModel is a sales order line
type SalesOrderItemModel struct {
	OrderItemModel
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}
