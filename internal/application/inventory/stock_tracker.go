package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/trade"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reorderer places a replenishment order for an item that dropped below its
// minimum stock level, inside the caller's transaction. It returns nil when
// no order was placed.
type Reorderer interface {
	ReorderWithin(ctx context.Context, repos common.TransactionalRepositories, collector *common.EventCollector, item *inventory.StockItem) (*trade.PurchaseOrder, error)
}

// StockTracker is the only writer of on-hand quantities. Every change is an
// Adjust on a row-locked item together with an appended stock movement.
type StockTracker struct {
	txScope         common.TransactionScope
	stockItemRepo   inventory.StockItemRepository
	movementRepo    inventory.StockMovementRepository
	authorizer      shared.Authorizer
	retry           common.RetryConfig
	reorderer       Reorderer
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewStockTracker creates a new StockTracker
func NewStockTracker(
	txScope common.TransactionScope,
	stockItemRepo inventory.StockItemRepository,
	movementRepo inventory.StockMovementRepository,
	authorizer shared.Authorizer,
	retry common.RetryConfig,
) *StockTracker {
	return &StockTracker{
		txScope:       txScope,
		stockItemRepo: stockItemRepo,
		movementRepo:  movementRepo,
		authorizer:    authorizer,
		retry:         retry,
		logger:        zap.NewNop(),
	}
}

// SetReorderer sets the policy run after manual decrements
func (s *StockTracker) SetReorderer(r Reorderer) {
	s.reorderer = r
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockTracker) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *StockTracker) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLogger sets the logger
func (s *StockTracker) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// AdjustWithin changes an item's stock by delta inside the caller's
// transaction: lock, adjust, save with version check, append the movement.
// It fails with ErrNegativeStock without touching anything when the result
// would be below zero.
func (s *StockTracker) AdjustWithin(
	ctx context.Context,
	repos common.TransactionalRepositories,
	collector *common.EventCollector,
	productID uuid.UUID,
	delta int,
	cause inventory.StockCause,
) (*inventory.StockItem, *inventory.StockMovement, error) {
	item, err := repos.StockItemRepo().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	movement, err := s.ApplyWithin(ctx, repos, collector, item, delta, cause)
	if err != nil {
		return nil, nil, err
	}
	return item, movement, nil
}

// ApplyWithin adjusts an item the caller has already locked with
// FindByIDForUpdate, then saves it and appends the movement.
func (s *StockTracker) ApplyWithin(
	ctx context.Context,
	repos common.TransactionalRepositories,
	collector *common.EventCollector,
	item *inventory.StockItem,
	delta int,
	cause inventory.StockCause,
) (*inventory.StockMovement, error) {
	movement, err := item.Adjust(delta, cause)
	if err != nil {
		return nil, err
	}
	if err := repos.StockItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	if err := repos.StockMovementRepo().Create(ctx, movement); err != nil {
		return nil, err
	}
	collector.Collect(item)
	return movement, nil
}

// CreateStockItem registers a product. A positive opening stock is recorded
// as an opening movement.
func (s *StockTracker) CreateStockItem(ctx context.Context, req CreateStockItemRequest) (*StockItemResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapStockCreate); err != nil {
		return nil, err
	}
	if req.OpeningStock < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Opening stock cannot be negative")
	}

	item, err := inventory.NewStockItem(req.SKU, req.Name, req.MinStockLevel, req.UnitCost)
	if err != nil {
		return nil, err
	}
	if req.PreferredSupplierID != nil {
		item.SetPreferredSupplier(req.PreferredSupplierID)
	}

	existing, err := s.stockItemRepo.FindBySKU(ctx, item.SKU)
	switch {
	case err == nil:
		return nil, shared.NewDomainError("DUPLICATE_SKU", "A stock item with SKU "+existing.SKU+" already exists")
	case !errors.Is(err, shared.ErrProductNotFound):
		return nil, err
	}

	var opening *inventory.StockMovement
	if req.OpeningStock > 0 {
		opening, err = item.Adjust(req.OpeningStock, inventory.StockCause{
			Type:  inventory.CauseTypeOpening,
			RefID: item.ID,
			Note:  "Opening stock",
		})
		if err != nil {
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		if err := repos.StockItemRepo().Create(ctx, item); err != nil {
			return err
		}
		if opening != nil {
			return repos.StockMovementRepo().Create(ctx, opening)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var collector common.EventCollector
	collector.Collect(item)
	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())

	response := ToStockItemResponse(item)
	return &response, nil
}

// Adjust applies a manual stock correction. A decrement that leaves the item
// below its minimum level runs the reorder policy in the same transaction.
func (s *StockTracker) Adjust(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*AdjustStockResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapStockAdjust); err != nil {
		return nil, err
	}

	cause := inventory.StockCause{
		Type:  inventory.CauseTypeAdjustment,
		RefID: uuid.New(),
		Note:  strings.TrimSpace(req.Note),
	}

	var (
		collector common.EventCollector
		item      *inventory.StockItem
		movement  *inventory.StockMovement
		reorder   *trade.PurchaseOrder
	)
	err := common.RetryOnConflict(ctx, s.retry, func(attempt int) error {
		collector.Reset()
		reorder = nil
		if attempt > 0 && s.businessMetrics != nil {
			s.businessMetrics.RecordConflictRetry(ctx, "stock_adjust")
		}
		return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			var err error
			item, movement, err = s.AdjustWithin(ctx, repos, &collector, productID, req.Delta, cause)
			if err != nil {
				return err
			}
			if req.Delta < 0 && item.NeedsReorder() && s.reorderer != nil {
				reorder, err = s.reorderer.ReorderWithin(ctx, repos, &collector, item)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())
	if reorder != nil && s.businessMetrics != nil {
		s.businessMetrics.RecordAutoReorder(ctx, item.ID.String())
	}

	response := &AdjustStockResponse{
		Item:     ToStockItemResponse(item),
		Movement: ToStockMovementResponse(movement),
	}
	if reorder != nil {
		response.ReorderID = &reorder.ID
	}
	return response, nil
}

// CheckReorder reports whether a product needs reordering and how much
func (s *StockTracker) CheckReorder(ctx context.Context, productID uuid.UUID) (*inventory.ReorderCheck, error) {
	item, err := s.stockItemRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	check := item.CheckReorder()
	return &check, nil
}

// GetStockItem retrieves a stock item by ID
func (s *StockTracker) GetStockItem(ctx context.Context, productID uuid.UUID) (*StockItemResponse, error) {
	item, err := s.stockItemRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// ListStockItems lists stock items; "below_minimum" restricts to items needing reorder
func (s *StockTracker) ListStockItems(ctx context.Context, filter shared.Filter) (*shared.Paginated[StockItemResponse], error) {
	items, err := s.stockItemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.stockItemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToStockItemResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListMovements lists a product's stock movements, newest first
func (s *StockTracker) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovementResponse, error) {
	if _, err := s.stockItemRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.FindByStockItem(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]StockMovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToStockMovementResponse(&movements[i])
	}
	return responses, nil
}
