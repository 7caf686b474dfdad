package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func newIdempotencyRouter(t *testing.T, store shared.IdempotencyStore, status *int, calls *int) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), IdempotencyKey(store, shared.DefaultIdempotencyConfig(), zaptest.NewLogger(t)))
	handler := func(c *gin.Context) {
		*calls++
		c.Status(*status)
	}
	r.POST("/api/v1/invoices/:id/pay", handler)
	r.GET("/api/v1/invoices/:id", handler)
	return r
}

func send(r *gin.Engine, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyKey(t *testing.T) {
	const path = "/api/v1/invoices/1/pay"

	t.Run("replay is rejected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusOK, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		first := send(r, http.MethodPost, path, "k-1")
		second := send(r, http.MethodPost, path, "k-1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Contains(t, second.Body.String(), `"code":"DUPLICATE_REQUEST"`)
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped by path", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusOK, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		send(r, http.MethodPost, "/api/v1/invoices/1/pay", "same")
		w := send(r, http.MethodPost, "/api/v1/invoices/2/pay", "same")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusUnprocessableEntity, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		send(r, http.MethodPost, path, "retry-me")
		status = http.StatusOK
		w := send(r, http.MethodPost, path, "retry-me")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("requests without a key or reads pass through", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		status, calls := http.StatusOK, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		send(r, http.MethodPost, path, "")
		send(r, http.MethodGet, "/api/v1/invoices/1", "k")

		assert.Equal(t, 2, calls)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure processes unguarded", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		status, calls := http.StatusOK, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		w := send(r, http.MethodPost, path, "k")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("oversized key is rejected", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		status, calls := http.StatusOK, 0
		r := newIdempotencyRouter(t, store, &status, &calls)

		long := make([]byte, MaxIdempotencyKeyLength+1)
		for i := range long {
			long[i] = 'k'
		}
		w := send(r, http.MethodPost, path, string(long))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, calls)
	})
}
