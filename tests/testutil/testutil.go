// Package testutil assembles the engine on an in-memory SQLite database for
// application, handler and scenario tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	tradeapp "github.com/erp/ledger-engine/internal/application/trade"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/auth"
	"github.com/erp/ledger-engine/internal/infrastructure/event"
	"github.com/erp/ledger-engine/internal/infrastructure/idgen"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDatabase opens a private in-memory database with the schema
// applied. A single connection keeps every query on the same database.
func NewSQLiteDatabase(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.OpenWithDialector(sqlite.Open("file::memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	return db
}

// EngineOptions tunes the policies the engine is assembled with
type EngineOptions struct {
	TaxRate        decimal.Decimal
	AllowOverdraft bool
	Retry          common.RetryConfig
	Logger         *zap.Logger
}

// Engine is the fully wired set of application services
type Engine struct {
	DB        *persistence.Database
	Bus       *event.InMemoryEventBus
	Events    *EventRecorder
	Workflow  *tradeapp.WorkflowService
	Ledger    *financeapp.LedgerService
	Invoices  *financeapp.InvoiceService
	Expenses  *financeapp.ExpenseService
	Dashboard *financeapp.DashboardService
	Stock     *inventoryapp.StockTracker
}

// NewEngine wires the services the same way cmd/server does, with a zero tax
// rate, overdraft disabled and fast retries unless opts say otherwise.
func NewEngine(t *testing.T, opts ...EngineOptions) *Engine {
	t.Helper()
	return NewEngineOn(t, NewSQLiteDatabase(t), opts...)
}

// NewEngineOn wires the services over an already migrated database
func NewEngineOn(t *testing.T, db *persistence.Database, opts ...EngineOptions) *Engine {
	t.Helper()

	o := EngineOptions{Retry: common.RetryConfig{MaxRetries: 3, Backoff: time.Millisecond}}
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger == nil {
		o.Logger = zaptest.NewLogger(t)
	}

	gdb := db.DB

	numbers, err := idgen.NewSnowflakeNumberGenerator(1)
	require.NoError(t, err)
	authorizer := auth.NewCapabilityAuthorizer(o.Logger)
	txScope := persistence.NewGormTransactionScope(gdb)

	accountRepo := persistence.NewGormBankAccountRepository(gdb)
	stockItemRepo := persistence.NewGormStockItemRepository(gdb)

	taxPolicy, err := finance.NewTaxPolicy(o.TaxRate)
	require.NoError(t, err)

	ledger := financeapp.NewLedgerService(txScope, accountRepo, persistence.NewGormTransactionRepository(gdb), authorizer,
		financeapp.LedgerConfig{
			Overdraft: finance.OverdraftPolicy{AllowOverdraft: o.AllowOverdraft},
			Retry:     o.Retry,
		})
	invoices := financeapp.NewInvoiceService(txScope, persistence.NewGormInvoiceRepository(gdb), ledger, numbers, authorizer,
		financeapp.InvoiceConfig{
			TaxPolicy:    taxPolicy,
			PaymentTerms: 30 * 24 * time.Hour,
			Retry:        o.Retry,
		})
	expenses := financeapp.NewExpenseService(txScope, persistence.NewGormExpenseRepository(gdb), ledger, authorizer, o.Retry)
	dashboard := financeapp.NewDashboardService(txScope, "")

	stock := inventoryapp.NewStockTracker(txScope, stockItemRepo, persistence.NewGormStockMovementRepository(gdb), authorizer, o.Retry)
	reorder := tradeapp.NewReorderPolicy(numbers, o.Logger)
	stock.SetReorderer(reorder)

	workflow := tradeapp.NewWorkflowService(txScope,
		persistence.NewGormPurchaseOrderRepository(gdb),
		persistence.NewGormSalesOrderRepository(gdb),
		stock, invoices, reorder, numbers, authorizer, o.Retry)

	bus := event.NewInMemoryEventBus(o.Logger)
	recorder := NewEventRecorder()
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	for _, svc := range []interface {
		SetEventPublisher(shared.EventPublisher)
		SetLogger(*zap.Logger)
	}{ledger, invoices, expenses, stock, workflow} {
		svc.SetEventPublisher(bus)
		svc.SetLogger(o.Logger)
	}

	return &Engine{
		DB:        db,
		Bus:       bus,
		Events:    recorder,
		Workflow:  workflow,
		Ledger:    ledger,
		Invoices:  invoices,
		Expenses:  expenses,
		Dashboard: dashboard,
		Stock:     stock,
	}
}

// AdminContext returns a context whose caller holds every capability
func AdminContext() context.Context {
	return CallerContext(shared.CapAll)
}

// CallerContext returns a context for a user holding only caps
func CallerContext(caps ...shared.Capability) context.Context {
	return shared.WithCaller(context.Background(), shared.Caller{
		UserID:       NewTestUUID("test-user"),
		Username:     "tester",
		Capabilities: caps,
	})
}

// NewTestUUID generates a deterministic UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// D parses a decimal literal
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// OpenAccount creates a bank account holding balance
func (e *Engine) OpenAccount(t *testing.T, name, balance string) financeapp.BankAccountResponse {
	t.Helper()
	account, err := e.Ledger.OpenAccount(AdminContext(), financeapp.CreateBankAccountRequest{
		Name:           name,
		Currency:       "EGP",
		OpeningBalance: D(balance),
	})
	require.NoError(t, err)
	return *account
}

// StockItemSpec describes a product to seed
type StockItemSpec struct {
	SKU        string
	Stock      int
	MinLevel   int
	UnitCost   string
	SupplierID *uuid.UUID
}

// CreateStockItem seeds a product with opening stock
func (e *Engine) CreateStockItem(t *testing.T, spec StockItemSpec) inventoryapp.StockItemResponse {
	t.Helper()
	cost := spec.UnitCost
	if cost == "" {
		cost = "10.00"
	}
	item, err := e.Stock.CreateStockItem(AdminContext(), inventoryapp.CreateStockItemRequest{
		SKU:                 spec.SKU,
		Name:                "Item " + spec.SKU,
		MinStockLevel:       spec.MinLevel,
		UnitCost:            D(cost),
		OpeningStock:        spec.Stock,
		PreferredSupplierID: spec.SupplierID,
	})
	require.NoError(t, err)
	return *item
}

// RequireReconciled asserts that the account's cached balance equals its log
func (e *Engine) RequireReconciled(t *testing.T, accountID uuid.UUID) financeapp.ReconciliationResponse {
	t.Helper()
	rec, err := e.Ledger.Reconcile(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, rec.Consistent, "account %s drifted: %+v", accountID, rec)
	return *rec
}
