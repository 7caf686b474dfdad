package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider using GORM.
// It queries the stock_items table directly for aggregated metrics.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// GetLowStockCount returns the number of products whose stock is below the minimum level.
func (p *GormInventoryMetricsProvider) GetLowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_items").
		Where("current_stock < min_stock_level").
		Count(&count).Error
	return count, err
}

// Ensure GormInventoryMetricsProvider implements InventoryMetricsProvider
var _ InventoryMetricsProvider = (*GormInventoryMetricsProvider)(nil)
