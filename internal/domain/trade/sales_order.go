package trade

import (
	"fmt"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus represents the status of a sales order
type SalesOrderStatus string

const (
	SalesOrderStatusPending   SalesOrderStatus = "pending"
	SalesOrderStatusConfirmed SalesOrderStatus = "confirmed"
	SalesOrderStatusShipped   SalesOrderStatus = "shipped"
	SalesOrderStatusDelivered SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
)

// SalesOrderAction is a transition trigger on a sales order
type SalesOrderAction string

const (
	SalesOrderActionConfirm SalesOrderAction = "confirm"
	SalesOrderActionShip    SalesOrderAction = "ship"
	SalesOrderActionDeliver SalesOrderAction = "deliver"
	SalesOrderActionCancel  SalesOrderAction = "cancel"
)

var salesOrderTransitions = map[SalesOrderStatus]map[SalesOrderAction]SalesOrderStatus{
	SalesOrderStatusPending: {
		SalesOrderActionConfirm: SalesOrderStatusConfirmed,
		SalesOrderActionCancel:  SalesOrderStatusCancelled,
	},
	SalesOrderStatusConfirmed: {
		SalesOrderActionShip: SalesOrderStatusShipped,
	},
	SalesOrderStatusShipped: {
		SalesOrderActionDeliver: SalesOrderStatusDelivered,
	},
}

// IsValid checks if the status is a valid SalesOrderStatus
func (s SalesOrderStatus) IsValid() bool {
	switch s {
	case SalesOrderStatusPending, SalesOrderStatusConfirmed, SalesOrderStatusShipped,
		SalesOrderStatusDelivered, SalesOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SalesOrderStatus
func (s SalesOrderStatus) String() string {
	return string(s)
}

// Next returns the status reached by applying action, if the transition exists
func (s SalesOrderStatus) Next(action SalesOrderAction) (SalesOrderStatus, bool) {
	next, ok := salesOrderTransitions[s][action]
	return next, ok
}

// CanTransitionTo checks if the status can transition to the target status
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	for _, next := range salesOrderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status
func (s SalesOrderStatus) IsTerminal() bool {
	return len(salesOrderTransitions[s]) == 0
}

// SalesOrder represents a sales order aggregate root
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string
	CustomerID   uuid.UUID
	Items        []OrderItem
	Status       SalesOrderStatus
	TotalAmount  decimal.Decimal
	Notes        string
	ConfirmedAt  *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewSalesOrder creates a new pending sales order
func NewSalesOrder(orderNumber string, customerID uuid.UUID, items []OrderItem) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order := &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		Items:             append([]OrderItem(nil), items...),
		Status:            SalesOrderStatusPending,
	}
	order.TotalAmount = SumItems(order.Items)

	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))

	return order, nil
}

// Confirm moves the order to confirmed and returns the quantities to take out
// of stock, merged per product and in product ID order. The caller must check
// availability for all of them before applying any.
func (o *SalesOrder) Confirm() ([]ProductQuantity, error) {
	if len(o.Items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot confirm a sales order without items")
	}
	if err := o.transition(SalesOrderActionConfirm); err != nil {
		return nil, err
	}
	now := time.Now()
	o.ConfirmedAt = &now

	demand := QuantitiesByProduct(o.Items)
	o.AddDomainEvent(NewSalesOrderConfirmedEvent(o, demand))
	return demand, nil
}

// Ship marks a confirmed order as shipped
func (o *SalesOrder) Ship() error {
	if err := o.transition(SalesOrderActionShip); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, EventTypeSalesOrderShipped))
	return nil
}

// Deliver marks a shipped order as delivered
func (o *SalesOrder) Deliver() error {
	if err := o.transition(SalesOrderActionDeliver); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, EventTypeSalesOrderDelivered))
	return nil
}

// Cancel cancels a pending order
func (o *SalesOrder) Cancel(reason string) error {
	if err := o.transition(SalesOrderActionCancel); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, EventTypeSalesOrderCancelled))
	return nil
}

func (o *SalesOrder) transition(action SalesOrderAction) error {
	next, ok := o.Status.Next(action)
	if !ok {
		return shared.ErrInvalidTransition.Errorf("Cannot %s sales order %s in %s status", action, o.OrderNumber, o.Status)
	}
	o.Status = next
	o.Touch()
	return nil
}

// String is used in log lines
func (o *SalesOrder) String() string {
	return fmt.Sprintf("SalesOrder(%s, %s)", o.OrderNumber, o.Status)
}
