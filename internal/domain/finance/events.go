package finance

import (
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeBankAccount = "BankAccount"
	AggregateTypeInvoice     = "Invoice"
)

const (
	EventTypeAccountBalanceChanged = "AccountBalanceChanged"
	EventTypeInvoiceGenerated      = "InvoiceGenerated"
	EventTypeInvoicePaid           = "InvoicePaid"
)

// AccountBalanceChangedEvent is raised for every posted transaction
type AccountBalanceChangedEvent struct {
	shared.BaseDomainEvent
	AccountID     uuid.UUID       `json:"account_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CauseType     CauseType       `json:"cause_type"`
	CauseID       uuid.UUID       `json:"cause_id"`
}

// NewAccountBalanceChangedEvent creates a new AccountBalanceChangedEvent
func NewAccountBalanceChangedEvent(a *BankAccount, tx *Transaction, before decimal.Decimal) *AccountBalanceChangedEvent {
	return &AccountBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountBalanceChanged, AggregateTypeBankAccount, a.ID),
		AccountID:       a.ID,
		TransactionID:   tx.ID,
		Direction:       tx.Direction,
		Amount:          tx.Amount,
		BalanceBefore:   before,
		BalanceAfter:    tx.BalanceAfter,
		CauseType:       tx.CauseType,
		CauseID:         tx.CauseID,
	}
}

// InvoiceGeneratedEvent is raised when an invoice is derived from an order
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	SourceOrderID   uuid.UUID       `json:"source_order_id"`
	SourceOrderType SourceOrderType `json:"source_order_type"`
	Total           decimal.Decimal `json:"total"`
}

// NewInvoiceGeneratedEvent creates a new InvoiceGeneratedEvent
func NewInvoiceGeneratedEvent(inv *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SourceOrderID:   inv.SourceOrderID,
		SourceOrderType: inv.SourceOrderType,
		Total:           inv.Total,
	}
}

// InvoicePaidEvent is raised when an invoice is settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	SourceOrderType SourceOrderType `json:"source_order_type"`
	AccountID       uuid.UUID       `json:"account_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice, accountID uuid.UUID, tx *Transaction) *InvoicePaidEvent {
	event := &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SourceOrderType: inv.SourceOrderType,
		AccountID:       accountID,
		Amount:          inv.Total,
	}
	if tx != nil {
		event.TransactionID = tx.ID
	}
	return event
}
