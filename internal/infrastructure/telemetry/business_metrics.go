// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the ledger engine.
// It tracks order transitions, invoices, ledger postings and inventory health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderTransitionTotal  *Counter
	invoiceGeneratedTotal *Counter
	invoicePaidTotal      *Counter
	invoicePaidAmount     *Counter
	ledgerPostingTotal    *Counter
	autoReorderTotal      *Counter
	lowStockEventTotal    *Counter
	conflictRetryTotal    *Counter

	// Histograms
	operationDuration *Histogram

	// Gauge metrics (point-in-time values)
	inventoryLowStockCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider provides inventory data for periodic metrics collection.
// This interface allows the telemetry layer to query inventory state without
// depending on the inventory domain directly.
type InventoryMetricsProvider interface {
	// GetLowStockCount returns the number of products below their minimum stock level
	GetLowStockCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.orderTransitionTotal, "erp_order_transition_total", "Total number of applied order state transitions", "{transitions}"},
		{&bm.invoiceGeneratedTotal, "erp_invoice_generated_total", "Total number of invoices generated", "{invoices}"},
		{&bm.invoicePaidTotal, "erp_invoice_paid_total", "Total number of invoices paid", "{invoices}"},
		{&bm.invoicePaidAmount, "erp_invoice_paid_amount_total", "Total paid invoice amount in minor units (piastres)", "{piastres}"},
		{&bm.ledgerPostingTotal, "erp_ledger_posting_total", "Total number of ledger transactions appended", "{transactions}"},
		{&bm.autoReorderTotal, "erp_auto_reorder_total", "Total number of auto-generated purchase orders", "{orders}"},
		{&bm.lowStockEventTotal, "erp_inventory_low_stock_event_total", "Total number of stock drops below the minimum level", "{events}"},
		{&bm.conflictRetryTotal, "erp_concurrency_retry_total", "Total number of operations retried after an optimistic lock conflict", "{retries}"},
	}

	var err error
	for _, c := range counters {
		*c.target, err = NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
	}

	bm.operationDuration, err = NewHistogram(
		cfg.Meter,
		"erp_operation_duration_seconds",
		"Duration of engine operations including retries",
		OperationDurationBuckets,
	)
	if err != nil {
		return nil, err
	}

	bm.inventoryLowStockCount, err = NewGauge(
		cfg.Meter,
		"erp_inventory_low_stock_count",
		"Number of products below minimum stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// OrderType represents the type of order for metrics labeling.
type OrderType string

const (
	OrderTypeSales    OrderType = "sales"
	OrderTypePurchase OrderType = "purchase"
)

// RecordOrderTransition records an applied order state transition such as
// purchase/receive or sales/confirm.
func (bm *BusinessMetrics) RecordOrderTransition(ctx context.Context, orderType OrderType, action string) {
	bm.orderTransitionTotal.Inc(ctx,
		AttrOrderType.String(string(orderType)),
		AttrOrderAction.String(action),
	)
}

// RecordAutoReorder records a purchase order created by the low stock trigger.
func (bm *BusinessMetrics) RecordAutoReorder(ctx context.Context, productID string) {
	bm.autoReorderTotal.Inc(ctx, AttrProductID.String(productID))
}

// =============================================================================
// Invoice & Ledger Metrics
// =============================================================================

// RecordInvoiceGenerated records an invoice produced by a billable order event.
func (bm *BusinessMetrics) RecordInvoiceGenerated(ctx context.Context, orderType OrderType) {
	bm.invoiceGeneratedTotal.Inc(ctx, AttrOrderType.String(string(orderType)))
}

// RecordInvoicePaid records a settled invoice and its total.
// The amount is converted to minor units (piastres, 1/100 EGP).
func (bm *BusinessMetrics) RecordInvoicePaid(ctx context.Context, orderType OrderType, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrOrderType.String(string(orderType))}
	bm.invoicePaidTotal.Inc(ctx, attrs...)
	bm.invoicePaidAmount.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordLedgerPosting records an appended ledger transaction.
func (bm *BusinessMetrics) RecordLedgerPosting(ctx context.Context, direction, causeType string) {
	bm.ledgerPostingTotal.Inc(ctx,
		AttrLedgerDirection.String(direction),
		AttrCauseType.String(causeType),
	)
}

// RecordConflictRetry records an operation rerun after losing an optimistic lock race.
func (bm *BusinessMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	bm.conflictRetryTotal.Inc(ctx, AttrOperation.String(operation))
}

// RecordOperation records how long an engine operation took and whether it
// succeeded.
func (bm *BusinessMetrics) RecordOperation(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	bm.operationDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// =============================================================================
// Inventory Metrics
// =============================================================================

// RecordLowStockEvent records a product dropping below its minimum level.
func (bm *BusinessMetrics) RecordLowStockEvent(ctx context.Context, productID string) {
	bm.lowStockEventTotal.Inc(ctx, AttrProductID.String(productID))
}

// RecordLowStockCount records the number of products below minimum threshold.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.inventoryLowStockCount.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects inventory metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectInventoryMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectInventoryMetrics(ctx)
		}
	}
}

// collectInventoryMetrics collects inventory gauge metrics.
func (bm *BusinessMetrics) collectInventoryMetrics(ctx context.Context) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	lowStockCount, err := bm.inventoryProvider.GetLowStockCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
		return
	}
	bm.RecordLowStockCount(ctx, lowStockCount)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
