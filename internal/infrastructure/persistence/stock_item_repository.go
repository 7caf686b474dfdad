package persistence

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a stock item by ID and locks its row
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a stock item by SKU
func (r *GormStockItemRepository) FindBySKU(ctx context.Context, sku string) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll lists stock items matching the filter
func (r *GormStockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	var itemModels []models.StockItemModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockItemModel{}), filter)
	query = paginate(query, filter, stockItemSort)
	if err := query.Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]inventory.StockItem, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items, nil
}

// Count counts stock items matching the filter
func (r *GormStockItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockItemModel{}), filter).Count(&count).Error
	return count, err
}

// Create inserts a new stock item
func (r *GormStockItemRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	if err := r.db.WithContext(ctx).Create(models.StockItemModelFromDomain(item)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewDomainError("DUPLICATE_SKU", "A product with SKU "+item.SKU+" already exists")
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockItemRepository) SaveWithLock(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]any{
			"name":                  item.Name,
			"current_stock":         item.CurrentStock,
			"min_stock_level":       item.MinStockLevel,
			"unit_cost":             item.UnitCost,
			"preferred_supplier_id": item.PreferredSupplierID,
			"last_supplier_id":      item.LastSupplierID,
			"version":               item.Version + 1,
			"updated_at":            item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return versionConflict("Stock item")
	}
	item.IncrementVersion()
	return nil
}

func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "below_minimum":
			if below, ok := value.(bool); ok && below {
				query = query.Where("current_stock < min_stock_level")
			}
		case "sku":
			query = query.Where("sku = ?", value)
		}
	}
	return query
}

// Ensure GormStockItemRepository implements StockItemRepository
var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
