package models

import (
	"time"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BankAccountModel is the persistence model for the BankAccount aggregate root.
type BankAccountModel struct {
	AggregateModel
	Name     string               `gorm:"type:varchar(100);not null"`
	Currency valueobject.Currency `gorm:"type:varchar(3);not null;default:'EGP'"`
	Balance  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount
func (m *BankAccountModel) ToDomain() *finance.BankAccount {
	return &finance.BankAccount{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Currency:          m.Currency,
		Balance:           m.Balance,
	}
}

// FromDomain populates the persistence model from a domain BankAccount
func (m *BankAccountModel) FromDomain(a *finance.BankAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.Currency = a.Currency
	m.Balance = a.Balance
}

// BankAccountModelFromDomain creates a new persistence model from domain entity
func BankAccountModelFromDomain(a *finance.BankAccount) *BankAccountModel {
	m := &BankAccountModel{}
	m.FromDomain(a)
	return m
}

// TransactionModel is an append-only row of the transaction log
type TransactionModel struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key"`
	BankAccountID uuid.UUID         `gorm:"type:uuid;not null;index:idx_transactions_account_date,priority:1"`
	Direction     finance.Direction `gorm:"type:varchar(3);not null"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Notes         string            `gorm:"type:varchar(500)"`
	CauseType     finance.CauseType `gorm:"type:varchar(20);not null;index:idx_transactions_cause,priority:1"`
	CauseID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_transactions_cause,priority:2"`
	Date          time.Time         `gorm:"not null;index:idx_transactions_account_date,priority:2"`
	CreatedAt     time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		ID:            m.ID,
		BankAccountID: m.BankAccountID,
		Direction:     m.Direction,
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		Notes:         m.Notes,
		CauseType:     m.CauseType,
		CauseID:       m.CauseID,
		Date:          m.Date,
		CreatedAt:     m.CreatedAt,
	}
}

// TransactionModelFromDomain creates a new persistence model from domain entity
func TransactionModelFromDomain(t *finance.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:            t.ID,
		BankAccountID: t.BankAccountID,
		Direction:     t.Direction,
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		Notes:         t.Notes,
		CauseType:     t.CauseType,
		CauseID:       t.CauseID,
		Date:          t.Date,
		CreatedAt:     t.CreatedAt,
	}
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The unique index on the source order enforces one invoice per order.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber        string                                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceOrderID        uuid.UUID                                `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_source_order,priority:2"`
	SourceOrderType      finance.SourceOrderType                  `gorm:"type:varchar(10);not null;uniqueIndex:idx_invoices_source_order,priority:1"`
	Lines                datatypes.JSONSlice[finance.InvoiceLine] `gorm:"not null"`
	Subtotal             decimal.Decimal                          `gorm:"type:decimal(18,4);not null;default:0"`
	Tax                  decimal.Decimal                          `gorm:"type:decimal(18,4);not null;default:0"`
	Total                decimal.Decimal                          `gorm:"type:decimal(18,4);not null;default:0"`
	Status               finance.InvoiceStatus                    `gorm:"type:varchar(10);not null;default:'unpaid';index"`
	DueDate              time.Time                                `gorm:"not null;index"`
	PaidAt               *time.Time
	PaidFromAccountID    *uuid.UUID `gorm:"type:uuid"`
	PaymentTransactionID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	lines := make([]finance.InvoiceLine, len(m.Lines))
	copy(lines, m.Lines)
	return &finance.Invoice{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		InvoiceNumber:        m.InvoiceNumber,
		SourceOrderID:        m.SourceOrderID,
		SourceOrderType:      m.SourceOrderType,
		Lines:                lines,
		Subtotal:             m.Subtotal,
		Tax:                  m.Tax,
		Total:                m.Total,
		Status:               m.Status,
		DueDate:              m.DueDate,
		PaidAt:               m.PaidAt,
		PaidFromAccountID:    m.PaidFromAccountID,
		PaymentTransactionID: m.PaymentTransactionID,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(i *finance.Invoice) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.InvoiceNumber = i.InvoiceNumber
	m.SourceOrderID = i.SourceOrderID
	m.SourceOrderType = i.SourceOrderType
	m.Lines = datatypes.NewJSONSlice(i.Lines)
	m.Subtotal = i.Subtotal
	m.Tax = i.Tax
	m.Total = i.Total
	m.Status = i.Status
	m.DueDate = i.DueDate
	m.PaidAt = i.PaidAt
	m.PaidFromAccountID = i.PaidFromAccountID
	m.PaymentTransactionID = i.PaymentTransactionID
}

// InvoiceModelFromDomain creates a new persistence model from domain entity
func InvoiceModelFromDomain(i *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// ExpenseModel is the persistence model for an expense
type ExpenseModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	Category      finance.ExpenseCategory `gorm:"type:varchar(30);not null;index"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	BankAccountID uuid.UUID               `gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	Notes         string                  `gorm:"type:varchar(500)"`
	IncurredAt    time.Time               `gorm:"not null;index"`
	CreatedAt     time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		ID:            m.ID,
		Category:      m.Category,
		Amount:        m.Amount,
		BankAccountID: m.BankAccountID,
		TransactionID: m.TransactionID,
		Notes:         m.Notes,
		IncurredAt:    m.IncurredAt,
		CreatedAt:     m.CreatedAt,
	}
}

// ExpenseModelFromDomain creates a new persistence model from domain entity
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	return &ExpenseModel{
		ID:            e.ID,
		Category:      e.Category,
		Amount:        e.Amount,
		BankAccountID: e.BankAccountID,
		TransactionID: e.TransactionID,
		Notes:         e.Notes,
		IncurredAt:    e.IncurredAt,
		CreatedAt:     e.CreatedAt,
	}
}
