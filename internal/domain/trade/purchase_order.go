package trade

import (
	"fmt"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "pending"
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrderAction is a transition trigger on a purchase order
type PurchaseOrderAction string

const (
	PurchaseOrderActionOrder   PurchaseOrderAction = "order"
	PurchaseOrderActionReceive PurchaseOrderAction = "receive"
	PurchaseOrderActionCancel  PurchaseOrderAction = "cancel"
)

// purchaseOrderTransitions is the complete adjacency list of the purchase
// order state machine. Anything not listed here is rejected.
var purchaseOrderTransitions = map[PurchaseOrderStatus]map[PurchaseOrderAction]PurchaseOrderStatus{
	PurchaseOrderStatusPending: {
		PurchaseOrderActionOrder:  PurchaseOrderStatusOrdered,
		PurchaseOrderActionCancel: PurchaseOrderStatusCancelled,
	},
	PurchaseOrderStatusOrdered: {
		PurchaseOrderActionReceive: PurchaseOrderStatusReceived,
	},
}

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusPending, PurchaseOrderStatusOrdered,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// Next returns the status reached by applying action, if the transition exists
func (s PurchaseOrderStatus) Next(action PurchaseOrderAction) (PurchaseOrderStatus, bool) {
	next, ok := purchaseOrderTransitions[s][action]
	return next, ok
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, next := range purchaseOrderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status
func (s PurchaseOrderStatus) IsTerminal() bool {
	return len(purchaseOrderTransitions[s]) == 0
}

// IsOpen reports whether the order may still deliver stock
func (s PurchaseOrderStatus) IsOpen() bool {
	return s == PurchaseOrderStatusPending || s == PurchaseOrderStatusOrdered
}

// PurchaseOrder represents a purchase order aggregate root
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	SupplierID    uuid.UUID
	Items         []OrderItem
	Status        PurchaseOrderStatus
	AutoGenerated bool
	// SourceProductID is the product whose low stock produced an auto-generated order
	SourceProductID *uuid.UUID
	TotalAmount     decimal.Decimal
	Notes           string
	OrderedAt       *time.Time
	ReceivedAt      *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewPurchaseOrder creates a new pending purchase order
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, items []OrderItem) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		Items:             append([]OrderItem(nil), items...),
		Status:            PurchaseOrderStatusPending,
	}
	order.recalculateTotals()

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// NewAutoPurchaseOrder creates a pending, system-generated reorder for a single product
func NewAutoPurchaseOrder(orderNumber string, supplierID, productID uuid.UUID, quantity int, unitCost decimal.Decimal) (*PurchaseOrder, error) {
	item, err := NewOrderItem(productID, quantity, unitCost)
	if err != nil {
		return nil, err
	}
	order, err := NewPurchaseOrder(orderNumber, supplierID, []OrderItem{item})
	if err != nil {
		return nil, err
	}
	order.AutoGenerated = true
	order.SourceProductID = &productID
	order.Notes = "Auto (Inventory)"
	return order, nil
}

// AddItem adds a line item; only allowed while pending
func (o *PurchaseOrder) AddItem(item OrderItem) error {
	if o.Status != PurchaseOrderStatusPending {
		return shared.ErrInvalidTransition.Errorf("Cannot modify purchase order in %s status", o.Status)
	}
	if err := validateItems([]OrderItem{item}); err != nil {
		return err
	}
	o.Items = append(o.Items, item)
	o.recalculateTotals()
	o.Touch()
	return nil
}

// Order places the order with the supplier, moving it from pending to ordered
func (o *PurchaseOrder) Order() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot order a purchase order without items")
	}
	if err := o.transition(PurchaseOrderActionOrder); err != nil {
		return err
	}
	now := time.Now()
	o.OrderedAt = &now

	o.AddDomainEvent(NewPurchaseOrderOrderedEvent(o))
	return nil
}

// Receive marks the goods as received and returns the quantities to add to
// stock, merged per product and in product ID order.
func (o *PurchaseOrder) Receive() ([]ProductQuantity, error) {
	if err := o.transition(PurchaseOrderActionReceive); err != nil {
		return nil, err
	}
	now := time.Now()
	o.ReceivedAt = &now

	received := QuantitiesByProduct(o.Items)
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o, received))
	return received, nil
}

// Cancel cancels a pending order
func (o *PurchaseOrder) Cancel(reason string) error {
	if err := o.transition(PurchaseOrderActionCancel); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))
	return nil
}

func (o *PurchaseOrder) transition(action PurchaseOrderAction) error {
	next, ok := o.Status.Next(action)
	if !ok {
		return shared.ErrInvalidTransition.Errorf("Cannot %s purchase order %s in %s status", action, o.OrderNumber, o.Status)
	}
	o.Status = next
	o.Touch()
	return nil
}

// recalculateTotals recalculates the order total
func (o *PurchaseOrder) recalculateTotals() {
	o.TotalAmount = SumItems(o.Items)
}

// IsOpen reports whether the order is pending or ordered
func (o *PurchaseOrder) IsOpen() bool {
	return o.Status.IsOpen()
}

// String is used in log lines
func (o *PurchaseOrder) String() string {
	return fmt.Sprintf("PurchaseOrder(%s, %s)", o.OrderNumber, o.Status)
}
