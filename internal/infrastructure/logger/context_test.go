package logger

import (
	"context"
	"testing"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))

	wrong := context.WithValue(context.Background(), loggerKey, "not a logger")
	assert.NotNil(t, FromContext(wrong))
}

func TestRequestIDAndOperation(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetOperation(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithOperation(ctx, "pay_invoice")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "pay_invoice", GetOperation(ctx))

	ctx = WithRequestID(ctx, "req-2")
	assert.Equal(t, "req-2", GetRequestID(ctx))
}

func TestContextFields(t *testing.T) {
	t.Run("empty context has no fields", func(t *testing.T) {
		assert.Empty(t, ContextFields(context.Background()))
	})

	t.Run("user caller", func(t *testing.T) {
		userID := uuid.New()
		ctx := shared.WithCaller(context.Background(), shared.Caller{UserID: userID, Username: "alice"})
		ctx = WithRequestID(ctx, "req-7")

		core, logs := observer.New(zapcore.InfoLevel)
		zap.New(core).Info("msg", ContextFields(ctx)...)

		fields := fieldMap(logs.All()[0])
		assert.Equal(t, "req-7", fields["request_id"])
		assert.Equal(t, userID.String(), fields["user_id"])
		assert.Equal(t, "alice", fields["username"])
		assert.NotContains(t, fields, "system")
	})

	t.Run("system caller", func(t *testing.T) {
		ctx := shared.WithCaller(context.Background(), shared.SystemCaller())

		core, logs := observer.New(zapcore.InfoLevel)
		zap.New(core).Info("msg", ContextFields(ctx)...)

		fields := fieldMap(logs.All()[0])
		assert.Equal(t, true, fields["system"])
		assert.NotContains(t, fields, "user_id")
	})

	t.Run("trace and span ids", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		core, logs := observer.New(zapcore.InfoLevel)
		zap.New(core).Info("msg", ContextFields(ctx)...)

		fields := fieldMap(logs.All()[0])
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestL(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithOperation(WithRequestID(ctx, "req-9"), "ship_sales_order")

	L(ctx).Info("Order shipped")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Order shipped", entry.Message)
	fields := fieldMap(entry)
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "ship_sales_order", fields["operation"])
}

func TestL_NoLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		L(WithRequestID(context.Background(), "x")).Info("dropped")
	})
}

func TestEnrich(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	assert.Same(t, base, Enrich(context.Background(), base))
	assert.NotNil(t, Enrich(context.Background(), nil))

	Enrich(WithRequestID(context.Background(), "req-3"), base).Warn("Low stock")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-3", fieldMap(logs.All()[0])["request_id"])
}
