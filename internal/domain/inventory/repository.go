package inventory

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// StockItemRepository defines the interface for stock item persistence
type StockItemRepository interface {
	// FindByID finds a stock item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindByIDForUpdate loads the item holding an exclusive row lock for the
	// rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindBySKU finds a stock item by SKU
	FindBySKU(ctx context.Context, sku string) (*StockItem, error)

	// FindAll lists stock items; the "below_minimum" filter restricts to items needing reorder
	FindAll(ctx context.Context, filter shared.Filter) ([]StockItem, error)

	// Count counts stock items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new stock item
	Create(ctx context.Context, item *StockItem) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, item *StockItem) error
}

// StockMovementRepository is the append-only stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
}
