package logger

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	operationKey contextKey = "operation"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID on ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from ctx
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// WithOperation names the engine operation ctx is running, such as
// "pay_invoice". It shows up on every entry logged through L.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// GetOperation retrieves the operation name from ctx
func GetOperation(ctx context.Context) string {
	operation, _ := ctx.Value(operationKey).(string)
	return operation
}

// ContextFields returns the correlation fields carried by ctx: trace and
// span IDs, request ID, operation and the caller identity.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if operation := GetOperation(ctx); operation != "" {
		fields = append(fields, zap.String("operation", operation))
	}
	if caller, ok := shared.CallerFromContext(ctx); ok {
		if caller.System {
			fields = append(fields, zap.Bool("system", true))
		} else {
			fields = append(fields,
				zap.String("user_id", caller.UserID.String()),
				zap.String("username", caller.Username),
			)
		}
	}
	return fields
}

// L returns the logger on ctx enriched with ContextFields.
//
//	logger.L(ctx).Info("Invoice paid", zap.String("invoice_id", id.String()))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds ContextFields to a logger that did not come from ctx, such as
// a service's own named logger.
func Enrich(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
