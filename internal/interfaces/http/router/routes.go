package router

import (
	"github.com/erp/ledger-engine/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers holds one handler per domain
type Handlers struct {
	PurchaseOrders *handler.PurchaseOrderHandler
	SalesOrders    *handler.SalesOrderHandler
	Stock          *handler.StockHandler
	Invoices       *handler.InvoiceHandler
	BankAccounts   *handler.BankAccountHandler
	Expenses       *handler.ExpenseHandler
	Dashboard      *handler.DashboardHandler
	System         *handler.SystemHandler
}

// MountOptions configures Mount
type MountOptions struct {
	APIVersion string
	// Idempotent guards every mutating route, typically
	// middleware.IdempotencyKey. Nil disables the guard.
	Idempotent gin.HandlerFunc
}

// Mount registers every engine endpoint. The health probe lives at /health
// outside the versioned prefix.
func Mount(engine *gin.Engine, h Handlers, opts MountOptions) *Router {
	r := NewRouter(engine, opts.APIVersion, opts.Idempotent)
	r.Probe("/health", h.System.Health)

	r.Mount(
		NewResource("/purchase-orders").
			Command("", h.PurchaseOrders.Create).
			Query("", h.PurchaseOrders.List).
			Query("/:id", h.PurchaseOrders.Get).
			Query("/:id/invoice", h.PurchaseOrders.Invoice).
			Command("/:id/order", h.PurchaseOrders.Order).
			Command("/:id/receive", h.PurchaseOrders.Receive).
			Command("/:id/cancel", h.PurchaseOrders.Cancel),

		NewResource("/sales-orders").
			Command("", h.SalesOrders.Create).
			Query("", h.SalesOrders.List).
			Query("/:id", h.SalesOrders.Get).
			Query("/:id/invoice", h.SalesOrders.Invoice).
			Command("/:id/confirm", h.SalesOrders.Confirm).
			Command("/:id/ship", h.SalesOrders.Ship).
			Command("/:id/deliver", h.SalesOrders.Deliver).
			Command("/:id/cancel", h.SalesOrders.Cancel),

		NewResource("/stock-items").
			Command("", h.Stock.Create).
			Query("", h.Stock.List).
			Query("/:id", h.Stock.Get).
			Command("/:id/adjust", h.Stock.Adjust).
			Query("/:id/reorder", h.Stock.Reorder).
			Query("/:id/movements", h.Stock.Movements),

		NewResource("/invoices").
			Query("", h.Invoices.List).
			Query("/:id", h.Invoices.Get).
			Command("/:id/pay", h.Invoices.Pay),

		NewResource("/bank-accounts").
			Command("", h.BankAccounts.Create).
			Query("", h.BankAccounts.List).
			Query("/:id", h.BankAccounts.Get).
			Query("/:id/transactions", h.BankAccounts.Transactions).
			Query("/:id/reconcile", h.BankAccounts.Reconcile).
			Command("/:id/adjustments", h.BankAccounts.Adjust),

		NewResource("/expenses").
			Command("", h.Expenses.Create).
			Query("", h.Expenses.List),

		NewResource("/dashboard").
			Query("/expenses", h.Dashboard.ExpensesBreakdown).
			Query("/month-comparison", h.Dashboard.MonthComparison).
			Query("/summary", h.Dashboard.Summary),

		NewResource("/system").
			Query("/info", h.System.Info),
	)
	return r
}
