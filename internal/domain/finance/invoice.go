package finance

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusPaid
}

// SourceOrderType identifies which order machine an invoice was derived from
type SourceOrderType string

const (
	SourceOrderTypePurchase SourceOrderType = "purchase"
	SourceOrderTypeSales    SourceOrderType = "sales"
)

// IsValid checks if the order type is known
func (t SourceOrderType) IsValid() bool {
	return t == SourceOrderTypePurchase || t == SourceOrderTypeSales
}

// PaymentDirection is the ledger direction of paying an invoice of this type:
// customers pay sales invoices into the account, purchase invoices are paid out.
func (t SourceOrderType) PaymentDirection() Direction {
	if t == SourceOrderTypeSales {
		return DirectionIn
	}
	return DirectionOut
}

// InvoiceLine is a snapshot of an order line at invoicing time
type InvoiceLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Invoice is derived from a billable order event. It holds only a back
// reference to its order and moves from unpaid to paid exactly once.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber        string
	SourceOrderID        uuid.UUID
	SourceOrderType      SourceOrderType
	Lines                []InvoiceLine
	Subtotal             decimal.Decimal
	Tax                  decimal.Decimal
	Total                decimal.Decimal
	Status               InvoiceStatus
	DueDate              time.Time
	PaidAt               *time.Time
	PaidFromAccountID    *uuid.UUID
	PaymentTransactionID *uuid.UUID
}

// NewInvoice builds an unpaid invoice; subtotal is the sum of the lines and
// tax comes from the policy
func NewInvoice(invoiceNumber string, orderType SourceOrderType, orderID uuid.UUID, lines []InvoiceLine, policy TaxPolicy, dueDate time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if !orderType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORDER_TYPE", "Source order type must be purchase or sales")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Source order ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot invoice an order without items")
	}

	subtotal := decimal.Zero
	for i := range lines {
		lines[i].Amount = lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		subtotal = subtotal.Add(lines[i].Amount)
	}
	tax := policy.TaxFor(subtotal)

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		SourceOrderID:     orderID,
		SourceOrderType:   orderType,
		Lines:             lines,
		Subtotal:          subtotal,
		Tax:               tax,
		Total:             subtotal.Add(tax),
		Status:            InvoiceStatusUnpaid,
		DueDate:           dueDate,
	}
	inv.AddDomainEvent(NewInvoiceGeneratedEvent(inv))
	return inv, nil
}

// PaymentDirection returns the ledger direction of settling this invoice
func (i *Invoice) PaymentDirection() Direction {
	return i.SourceOrderType.PaymentDirection()
}

// MarkPaid flips the invoice to paid. It fails with ErrAlreadyPaid unless the
// invoice is currently unpaid. tx is nil only for a zero total invoice, which
// settles without moving money.
func (i *Invoice) MarkPaid(accountID uuid.UUID, tx *Transaction) error {
	if i.Status != InvoiceStatusUnpaid {
		return shared.ErrAlreadyPaid.Errorf("Invoice %s is already paid", i.InvoiceNumber)
	}
	if tx == nil && !i.Total.IsZero() {
		return shared.NewDomainError("PAYMENT_REQUIRED", "A ledger transaction is required to settle a non-zero invoice")
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.PaidFromAccountID = &accountID
	if tx != nil {
		i.PaymentTransactionID = &tx.ID
	}
	i.Touch()

	i.AddDomainEvent(NewInvoicePaidEvent(i, accountID, tx))
	return nil
}

// IsPaid reports whether the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue reports whether an unpaid invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusUnpaid && now.After(i.DueDate)
}
