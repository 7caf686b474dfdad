package trade

import (
	"context"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/trade"
	"go.uber.org/zap"
)

// ReorderPolicy creates the auto-generated purchase order for an item whose
// stock fell below its minimum level. It acts as the system caller and needs
// no capability.
//
// The order is for 2×min − current units at the product's unit cost, placed
// with the preferred supplier, else the last supplier goods were received
// from. Without either no order is placed and a warning is logged. While an
// auto-generated order for the product is pending or ordered nothing new is
// created; the caller holds the item's row lock, so concurrent decrements of
// the same product see each other's orders.
type ReorderPolicy struct {
	numbers common.NumberGenerator
	logger  *zap.Logger
}

// NewReorderPolicy creates a new ReorderPolicy
func NewReorderPolicy(numbers common.NumberGenerator, logger *zap.Logger) *ReorderPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReorderPolicy{
		numbers: numbers,
		logger:  logger,
	}
}

// ReorderWithin places the reorder using the caller's transaction.
// It returns nil, nil when no order was needed or possible.
func (p *ReorderPolicy) ReorderWithin(
	ctx context.Context,
	repos common.TransactionalRepositories,
	collector *common.EventCollector,
	item *inventory.StockItem,
) (*trade.PurchaseOrder, error) {
	if !item.NeedsReorder() {
		return nil, nil
	}

	open, err := repos.PurchaseOrderRepo().ExistsOpenAutoGenerated(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if open {
		p.logger.Debug("Auto reorder already open, skipping",
			zap.String("product_id", item.ID.String()),
			zap.String("sku", item.SKU),
		)
		return nil, nil
	}

	supplierID, ok := item.ReorderSupplier()
	if !ok {
		p.logger.Warn("Stock below minimum but no supplier known, no purchase order created",
			zap.String("product_id", item.ID.String()),
			zap.String("sku", item.SKU),
			zap.Int("current_stock", item.CurrentStock),
			zap.Int("min_stock_level", item.MinStockLevel),
		)
		return nil, nil
	}

	order, err := trade.NewAutoPurchaseOrder(
		p.numbers.Next(common.PrefixPurchaseOrder),
		supplierID,
		item.ID,
		item.SuggestedReorderQuantity(),
		item.UnitCost,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.PurchaseOrderRepo().Create(ctx, order); err != nil {
		return nil, err
	}
	collector.Collect(order)

	p.logger.Info("Auto purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("product_id", item.ID.String()),
		zap.Int("quantity", order.Items[0].Quantity),
	)
	return order, nil
}
