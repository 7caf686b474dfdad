package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/cache"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"github.com/erp/ledger-engine/internal/interfaces/http/handler"
	"github.com/erp/ledger-engine/internal/interfaces/http/middleware"
	"github.com/erp/ledger-engine/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Envelope is the response wrapper every API endpoint returns
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// Do sends a request with an optional JSON body through handler
func Do(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Decode parses the response envelope with data typed as T
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// RequireErrorCode asserts the response failed with status and code
func RequireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	env := Decode[json.RawMessage](t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code, env.Error.Message)
}

// NewHTTPServer mounts the API over e with the production middleware chain.
// Callers authenticate through the trusted gateway headers, see AdminHeaders.
func NewHTTPServer(t *testing.T, e *Engine) *gin.Engine {
	t.Helper()

	log := zaptest.NewLogger(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(1<<20),
		middleware.Authenticate(middleware.AuthConfig{
			TrustHeaders: true,
			SkipPaths:    []string{"/health"},
			Logger:       log,
		}),
	)

	router.Mount(engine, router.Handlers{
		PurchaseOrders: handler.NewPurchaseOrderHandler(e.Workflow, e.Invoices),
		SalesOrders:    handler.NewSalesOrderHandler(e.Workflow, e.Invoices),
		Stock:          handler.NewStockHandler(e.Stock),
		Invoices:       handler.NewInvoiceHandler(e.Invoices),
		BankAccounts:   handler.NewBankAccountHandler(e.Ledger),
		Expenses:       handler.NewExpenseHandler(e.Expenses),
		Dashboard:      handler.NewDashboardHandler(e.Dashboard),
		System:         handler.NewSystemHandler(e.DB, "test"),
	}, router.MountOptions{
		Idempotent: middleware.IdempotencyKey(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}, log),
	})
	return engine
}

// AdminHeaders authenticates a request as a caller holding every capability
func AdminHeaders() map[string]string {
	return CallerHeaders(shared.CapAll)
}

// CallerHeaders authenticates a request as a caller holding only caps
func CallerHeaders(caps ...shared.Capability) map[string]string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return map[string]string{
		middleware.UserIDHeader:       NewTestUUID("test-user").String(),
		middleware.UsernameHeader:     "tester",
		middleware.CapabilitiesHeader: strings.Join(names, ","),
	}
}
