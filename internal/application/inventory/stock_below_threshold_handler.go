package inventory

import (
	"context"
	"fmt"

	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/logger"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertSeverity distinguishes a thin shelf from an empty one
type AlertSeverity string

const (
	SeverityLowStock   AlertSeverity = "low_stock"
	SeverityOutOfStock AlertSeverity = "out_of_stock"
)

// StockAlert is what a notifier receives for one product
type StockAlert struct {
	ProductID uuid.UUID     `json:"product_id"`
	SKU       string        `json:"sku"`
	Current   int           `json:"current"`
	Minimum   int           `json:"minimum"`
	Shortfall int           `json:"shortfall"`
	Severity  AlertSeverity `json:"severity"`
}

func alertFor(e *inventory.StockBelowThresholdEvent) StockAlert {
	severity := SeverityLowStock
	if e.CurrentStock <= 0 {
		severity = SeverityOutOfStock
	}
	return StockAlert{
		ProductID: e.ProductID,
		SKU:       e.SKU,
		Current:   e.CurrentStock,
		Minimum:   e.MinStockLevel,
		Shortfall: e.MinStockLevel - e.CurrentStock,
		Severity:  severity,
	}
}

// StockAlertNotifier delivers low stock alerts to people
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockBelowThresholdHandler turns StockBelowThreshold events into alerts.
// Reordering itself happens inside the confirming transaction; this handler
// only tells someone about it.
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	metrics  *telemetry.BusinessMetrics
}

func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{logger: logger}
}

func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

func (h *StockBelowThresholdHandler) WithBusinessMetrics(bm *telemetry.BusinessMetrics) *StockBelowThresholdHandler {
	h.metrics = bm
	return h
}

func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle never fails because a notifier did; the stock change already
// committed and retrying the event would only repeat the alert.
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("stock alert handler got %s event", event.EventType())
	}

	alert := alertFor(e)
	log := logger.Enrich(ctx, h.logger).With(
		zap.Stringer("product_id", alert.ProductID),
		zap.String("sku", alert.SKU),
	)
	log.Warn("Stock below minimum level",
		zap.Int("current_stock", alert.Current),
		zap.Int("min_stock_level", alert.Minimum),
		zap.String("severity", string(alert.Severity)),
	)

	if h.metrics != nil {
		h.metrics.RecordLowStockEvent(ctx, alert.ProductID.String())
	}
	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		log.Error("Stock alert not delivered", zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier writes alerts to the log. It is the notifier
// wired when no outbound channel is configured.
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	logger.Enrich(ctx, n.logger).Warn("Reorder needed",
		zap.String("severity", string(alert.Severity)),
		zap.String("sku", alert.SKU),
		zap.Int("shortfall", alert.Shortfall),
	)
	return nil
}
