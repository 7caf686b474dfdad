package common

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/trade"
)

// TransactionScope provides transactional access to every repository that
// takes part in a cross-aggregate operation.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error

	// Snapshot runs fn in a read-only transaction in which every read sees the
	// same committed state.
	Snapshot(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Lock order inside a transaction is always: order, stock items by product ID,
// invoice, bank account. Callers that follow it cannot deadlock each other.
type TransactionalRepositories interface {
	BankAccountRepo() finance.BankAccountRepository
	// TransactionRepo returns the append-only ledger transaction log
	TransactionRepo() finance.TransactionRepository
	InvoiceRepo() finance.InvoiceRepository
	ExpenseRepo() finance.ExpenseRepository
	StockItemRepo() inventory.StockItemRepository
	StockMovementRepo() inventory.StockMovementRepository
	PurchaseOrderRepo() trade.PurchaseOrderRepository
	SalesOrderRepo() trade.SalesOrderRepository
	ReportRepo() finance.ReportRepository
}

// Repositories is a plain set of repositories. It satisfies
// TransactionalRepositories so the same value can back a NoOpTransactionScope.
type Repositories struct {
	BankAccounts   finance.BankAccountRepository
	Transactions   finance.TransactionRepository
	Invoices       finance.InvoiceRepository
	Expenses       finance.ExpenseRepository
	StockItems     inventory.StockItemRepository
	StockMovements inventory.StockMovementRepository
	PurchaseOrders trade.PurchaseOrderRepository
	SalesOrders    trade.SalesOrderRepository
	Reports        finance.ReportRepository
}

func (r Repositories) BankAccountRepo() finance.BankAccountRepository       { return r.BankAccounts }
func (r Repositories) TransactionRepo() finance.TransactionRepository       { return r.Transactions }
func (r Repositories) InvoiceRepo() finance.InvoiceRepository               { return r.Invoices }
func (r Repositories) ExpenseRepo() finance.ExpenseRepository               { return r.Expenses }
func (r Repositories) StockItemRepo() inventory.StockItemRepository         { return r.StockItems }
func (r Repositories) StockMovementRepo() inventory.StockMovementRepository { return r.StockMovements }
func (r Repositories) PurchaseOrderRepo() trade.PurchaseOrderRepository     { return r.PurchaseOrders }
func (r Repositories) SalesOrderRepo() trade.SalesOrderRepository           { return r.SalesOrders }
func (r Repositories) ReportRepo() finance.ReportRepository                 { return r.Reports }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// Snapshot runs the function directly; there is no isolation to provide.
func (s *NoOpTransactionScope) Snapshot(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// Ensure the implementations satisfy the interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = Repositories{}
