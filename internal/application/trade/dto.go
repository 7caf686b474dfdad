package trade

import (
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	"github.com/erp/ledger-engine/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Request DTOs ====================

// OrderItemInput is one requested order line
type OrderItemInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID uuid.UUID        `json:"supplier_id"`
	Items      []OrderItemInput `json:"items"`
	Notes      string           `json:"notes"`
}

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	CustomerID uuid.UUID        `json:"customer_id"`
	Items      []OrderItemInput `json:"items"`
	Notes      string           `json:"notes"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func toOrderItems(inputs []OrderItemInput) ([]trade.OrderItem, error) {
	items := make([]trade.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := trade.NewOrderItem(in.ProductID, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ==================== Response DTOs ====================

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Amount    string    `json:"amount"`
}

func toOrderItemResponses(items []trade.OrderItem) []OrderItemResponse {
	responses := make([]OrderItemResponse, len(items))
	for i, item := range items {
		responses[i] = OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: common.FormatAmount(item.UnitPrice),
			Amount:    common.FormatAmount(item.Amount()),
		}
	}
	return responses
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	SupplierID      uuid.UUID           `json:"supplier_id"`
	Items           []OrderItemResponse `json:"items"`
	TotalAmount     string              `json:"total_amount"`
	Status          string              `json:"status"`
	AutoGenerated   bool                `json:"auto_generated"`
	SourceProductID *uuid.UUID          `json:"source_product_id,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	OrderedAt       *time.Time          `json:"ordered_at,omitempty"`
	ReceivedAt      *time.Time          `json:"received_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int                 `json:"version"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to its response DTO
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		Items:           toOrderItemResponses(order.Items),
		TotalAmount:     common.FormatAmount(order.TotalAmount),
		Status:          string(order.Status),
		AutoGenerated:   order.AutoGenerated,
		SourceProductID: order.SourceProductID,
		Notes:           order.Notes,
		OrderedAt:       order.OrderedAt,
		ReceivedAt:      order.ReceivedAt,
		CancelledAt:     order.CancelledAt,
		CancelReason:    order.CancelReason,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}

// ToPurchaseOrderResponses converts a slice of purchase orders
func ToPurchaseOrderResponses(orders []trade.PurchaseOrder) []PurchaseOrderResponse {
	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return responses
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerID   uuid.UUID           `json:"customer_id"`
	Items        []OrderItemResponse `json:"items"`
	TotalAmount  string              `json:"total_amount"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	ConfirmedAt  *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt    *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Version      int                 `json:"version"`
}

// ToSalesOrderResponse converts a domain SalesOrder to its response DTO
func ToSalesOrderResponse(order *trade.SalesOrder) SalesOrderResponse {
	return SalesOrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerID:   order.CustomerID,
		Items:        toOrderItemResponses(order.Items),
		TotalAmount:  common.FormatAmount(order.TotalAmount),
		Status:       string(order.Status),
		Notes:        order.Notes,
		ConfirmedAt:  order.ConfirmedAt,
		ShippedAt:    order.ShippedAt,
		DeliveredAt:  order.DeliveredAt,
		CancelledAt:  order.CancelledAt,
		CancelReason: order.CancelReason,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Version:      order.Version,
	}
}

// ToSalesOrderResponses converts a slice of sales orders
func ToSalesOrderResponses(orders []trade.SalesOrder) []SalesOrderResponse {
	responses := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToSalesOrderResponse(&orders[i])
	}
	return responses
}

// SideEffects summarizes what a transition changed besides the order itself
type SideEffects struct {
	StockChanges       []inventoryapp.StockChange  `json:"stock_changes"`
	Invoice            *financeapp.InvoiceResponse `json:"invoice,omitempty"`
	AutoPurchaseOrders []PurchaseOrderResponse     `json:"auto_purchase_orders"`
}

func newSideEffects() SideEffects {
	return SideEffects{
		StockChanges:       []inventoryapp.StockChange{},
		AutoPurchaseOrders: []PurchaseOrderResponse{},
	}
}

// PurchaseOrderTransitionResponse is the updated purchase order plus side effects
type PurchaseOrderTransitionResponse struct {
	Order       PurchaseOrderResponse `json:"order"`
	SideEffects SideEffects           `json:"side_effects"`
}

// SalesOrderTransitionResponse is the updated sales order plus side effects
type SalesOrderTransitionResponse struct {
	Order       SalesOrderResponse `json:"order"`
	SideEffects SideEffects        `json:"side_effects"`
}
