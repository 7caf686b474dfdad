package handler_test

import (
	"net/http"
	"testing"

	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	tradeapp "github.com/erp/ledger-engine/internal/application/trade"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesOrderLifecycle_OverHTTP(t *testing.T) {
	e := testutil.NewEngine(t)
	srv := testutil.NewHTTPServer(t, e)
	admin := testutil.AdminHeaders()

	supplierID := testutil.NewTestUUID("supplier-1")
	account := e.OpenAccount(t, "Main", "1000.00")
	widget := e.CreateStockItem(t, testutil.StockItemSpec{SKU: "WID-1", Stock: 10, MinLevel: 5, UnitCost: "12.00", SupplierID: &supplierID})
	gadget := e.CreateStockItem(t, testutil.StockItemSpec{SKU: "GAD-1", Stock: 100, MinLevel: 0})

	w := testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customer_id": testutil.NewTestUUID("customer-1"),
		"items": []map[string]any{
			{"product_id": widget.ID, "quantity": 6, "unit_price": "25.00"},
			{"product_id": gadget.ID, "quantity": 2, "unit_price": "50.00"},
		},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.Decode[tradeapp.SalesOrderResponse](t, w)
	assert.Equal(t, "pending", created.Data.Status)
	assert.Equal(t, "250.00", created.Data.TotalAmount)

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders/"+created.Data.ID.String()+"/confirm", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := testutil.Decode[tradeapp.SalesOrderTransitionResponse](t, w)
	assert.Equal(t, "confirmed", confirmed.Data.Order.Status)
	require.NotNil(t, confirmed.Data.SideEffects.Invoice)
	assert.Equal(t, "250.00", confirmed.Data.SideEffects.Invoice.Total)
	require.Len(t, confirmed.Data.SideEffects.AutoPurchaseOrders, 1)
	assert.Equal(t, supplierID, confirmed.Data.SideEffects.AutoPurchaseOrders[0].SupplierID)

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/stock-items/"+widget.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_stock":4`)

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/sales-orders/"+created.Data.ID.String()+"/invoice", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := testutil.Decode[financeapp.InvoiceResponse](t, w)
	assert.Equal(t, "unpaid", invoice.Data.Status)

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/invoices/"+invoice.Data.ID.String()+"/pay", map[string]any{
		"bank_account_id": account.ID,
	}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payment := testutil.Decode[financeapp.PaymentResponse](t, w)
	assert.Equal(t, "1250.00", payment.Data.Account.Balance)
	require.NotNil(t, payment.Data.Transaction)
	assert.Equal(t, "in", payment.Data.Transaction.Direction)

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/invoices/"+invoice.Data.ID.String()+"/pay", map[string]any{
		"bank_account_id": account.ID,
	}, admin)
	testutil.RequireErrorCode(t, w, http.StatusConflict, "ALREADY_PAID")

	for _, step := range []string{"ship", "deliver"} {
		w = testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders/"+created.Data.ID.String()+"/"+step, nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders/"+created.Data.ID.String()+"/cancel",
		map[string]any{"reason": "too late"}, admin)
	testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, "INVALID_TRANSITION")

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/bank-accounts/"+account.ID.String()+"/reconcile", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	report := testutil.Decode[financeapp.ReconciliationResponse](t, w)
	assert.True(t, report.Data.Consistent)
	assert.Equal(t, "1250.00", report.Data.Balance)
	assert.Equal(t, int64(2), report.Data.TransactionCount)
}

func TestPurchaseOrderLifecycle_OverHTTP(t *testing.T) {
	e := testutil.NewEngine(t)
	srv := testutil.NewHTTPServer(t, e)
	admin := testutil.AdminHeaders()

	account := e.OpenAccount(t, "Main", "1000.00")
	item := e.CreateStockItem(t, testutil.StockItemSpec{SKU: "BOLT", Stock: 3, MinLevel: 0})

	w := testutil.Do(t, srv, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"supplier_id": testutil.NewTestUUID("supplier-2"),
		"items":       []map[string]any{{"product_id": item.ID, "quantity": 50, "unit_price": "10.00"}},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := testutil.Decode[tradeapp.PurchaseOrderResponse](t, w)
	assert.Equal(t, "500.00", order.Data.TotalAmount)
	assert.False(t, order.Data.AutoGenerated)

	path := "/api/v1/purchase-orders/" + order.Data.ID.String()

	// receiving before ordering is not a legal transition
	w = testutil.Do(t, srv, http.MethodPost, path+"/receive", nil, admin)
	testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, "INVALID_TRANSITION")

	w = testutil.Do(t, srv, http.MethodPost, path+"/order", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, srv, http.MethodPost, path+"/receive", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := testutil.Decode[tradeapp.PurchaseOrderTransitionResponse](t, w)
	assert.Equal(t, "received", received.Data.Order.Status)
	require.Len(t, received.Data.SideEffects.StockChanges, 1)
	assert.Equal(t, 53, received.Data.SideEffects.StockChanges[0].After)
	require.NotNil(t, received.Data.SideEffects.Invoice)

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/invoices/"+received.Data.SideEffects.Invoice.ID.String()+"/pay",
		map[string]any{"bank_account_id": account.ID, "notes": "supplier settlement"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payment := testutil.Decode[financeapp.PaymentResponse](t, w)
	assert.Equal(t, "500.00", payment.Data.Account.Balance)
	assert.Equal(t, "out", payment.Data.Transaction.Direction)

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/purchase-orders?status=received", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	list := testutil.Decode[[]tradeapp.PurchaseOrderResponse](t, w)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(1), list.Meta.Total)

	e.RequireReconciled(t, account.ID)
}

func TestOrderHandlers_RejectBadInput(t *testing.T) {
	e := testutil.NewEngine(t)
	srv := testutil.NewHTTPServer(t, e)
	admin := testutil.AdminHeaders()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/sales-orders/nope", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown order", http.MethodGet, "/api/v1/sales-orders/" + uuid.NewString(), nil, http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"no items", http.MethodPost, "/api/v1/sales-orders", map[string]any{
			"customer_id": uuid.New(), "items": []any{},
		}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero quantity", http.MethodPost, "/api/v1/purchase-orders", map[string]any{
			"supplier_id": uuid.New(),
			"items":       []map[string]any{{"product_id": uuid.New(), "quantity": 0, "unit_price": "1.00"}},
		}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative price", http.MethodPost, "/api/v1/purchase-orders", map[string]any{
			"supplier_id": uuid.New(),
			"items":       []map[string]any{{"product_id": uuid.New(), "quantity": 1, "unit_price": "-1"}},
		}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad status filter", http.MethodGet, "/api/v1/sales-orders?status=lost", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(t, srv, tt.method, tt.path, tt.body, admin)
			testutil.RequireErrorCode(t, w, tt.status, tt.code)
		})
	}
}

func TestSalesOrderConfirm_InsufficientStockLeavesStockUntouched(t *testing.T) {
	e := testutil.NewEngine(t)
	srv := testutil.NewHTTPServer(t, e)
	admin := testutil.AdminHeaders()

	plenty := e.CreateStockItem(t, testutil.StockItemSpec{SKU: "PLENTY", Stock: 20})
	scarce := e.CreateStockItem(t, testutil.StockItemSpec{SKU: "SCARCE", Stock: 1})

	w := testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customer_id": uuid.New(),
		"items": []map[string]any{
			{"product_id": plenty.ID, "quantity": 5, "unit_price": "1.00"},
			{"product_id": scarce.ID, "quantity": 2, "unit_price": "1.00"},
		},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := testutil.Decode[tradeapp.SalesOrderResponse](t, w)

	w = testutil.Do(t, srv, http.MethodPost, "/api/v1/sales-orders/"+order.Data.ID.String()+"/confirm", nil, admin)
	testutil.RequireErrorCode(t, w, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK")

	for id, want := range map[uuid.UUID]int{plenty.ID: 20, scarce.ID: 1} {
		w = testutil.Do(t, srv, http.MethodGet, "/api/v1/stock-items/"+id.String(), nil, admin)
		item := testutil.Decode[inventoryapp.StockItemResponse](t, w)
		assert.Equal(t, want, item.Data.CurrentStock)
	}

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/sales-orders/"+order.Data.ID.String(), nil, admin)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestOrderHandlers_CapabilityEnforced(t *testing.T) {
	e := testutil.NewEngine(t)
	srv := testutil.NewHTTPServer(t, e)

	w := testutil.Do(t, srv, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"supplier_id": uuid.New(),
		"items":       []map[string]any{{"product_id": uuid.New(), "quantity": 1, "unit_price": "1.00"}},
	}, testutil.CallerHeaders(shared.CapSalesOrderCreate))
	testutil.RequireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	w = testutil.Do(t, srv, http.MethodGet, "/api/v1/purchase-orders", nil, nil)
	testutil.RequireErrorCode(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
}
