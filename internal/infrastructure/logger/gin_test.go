package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(l *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-abc")
		c.Next()
	})
	router.Use(Recovery(l), GinMiddleware(l))
	return router
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs success at info with route and request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		router := newTestRouter(zap.New(core))
		router.GET("/invoices/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/42?expand=lines", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, "req-abc", fields["request_id"])
		assert.Equal(t, "/invoices/:id", fields["route"])
		assert.Equal(t, "/invoices/42", fields["path"])
		assert.Equal(t, "expand=lines", fields["query"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		router := newTestRouter(zap.New(core))
		router.POST("/invoices/:id/pay", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{})
		})

		req := httptest.NewRequest(http.MethodPost, "/invoices/1/pay", nil)
		req.Header.Set("Idempotency-Key", "k-1")
		router.ServeHTTP(httptest.NewRecorder(), req)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, "k-1", logs.All()[0].ContextMap()["idempotency_key"])
	})

	t.Run("server errors log at error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		router := newTestRouter(zap.New(core))
		router.GET("/fail", func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
		assert.Contains(t, logs.All()[0].ContextMap(), "errors")
	})

	t.Run("request context carries logger and request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		router := newTestRouter(zap.New(core))
		router.GET("/ctx", func(c *gin.Context) {
			ctx := c.Request.Context()
			assert.Equal(t, "req-abc", GetRequestID(ctx))
			L(ctx).Info("handler entry")
			c.Status(http.StatusNoContent)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ctx", nil))

		entries := logs.FilterMessage("handler entry").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-abc", entries[0].ContextMap()["request_id"])
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newTestRouter(zap.New(core))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "req-abc", body.Error.RequestID)

	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	l := zap.NewExample()
	c.Set(ginLoggerKey, l)
	assert.Same(t, l, GetGinLogger(c))
}
