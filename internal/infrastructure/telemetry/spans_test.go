package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartOperationSpan(t *testing.T) {
	recorder := withRecorder(t)
	orderID := uuid.New()

	ctx, span := StartOperationSpan(context.Background(), "workflow", "receive_purchase_order",
		SpanAttrOrderID, orderID,
		SpanAttrAttempt, 2,
		"dangling",
	)
	AddEvent(ctx, "stock_applied", SpanAttrProductID, "p-1")
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "workflow.receive_purchase_order", got.Name())
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrOrderID, orderID.String()))
	assert.Contains(t, got.Attributes(), attribute.Int(SpanAttrAttempt, 2))
	assert.Len(t, got.Attributes(), 2)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "stock_applied", got.Events()[0].Name)
	assert.Equal(t, codes.Unset, got.Status().Code)
}

func TestEndSpan_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartOperationSpan(context.Background(), "invoice", "pay")
	EndSpan(span, errors.New("insufficient funds"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "insufficient funds", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestAddEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddEvent(context.Background(), "ignored", "k", "v")
	})
}
