package trade

import (
	"context"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/trade"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// WorkflowService drives purchase and sales orders through their state
// machines. Transitions with side effects run as one transaction in a fixed
// order: order state, stock per product in product ID order, invoice, then
// auto-reorder. Any failure rolls all of it back.
type WorkflowService struct {
	txScope           common.TransactionScope
	purchaseOrderRepo trade.PurchaseOrderRepository
	salesOrderRepo    trade.SalesOrderRepository
	stock             *inventoryapp.StockTracker
	invoices          *financeapp.InvoiceService
	reorder           *ReorderPolicy
	numbers           common.NumberGenerator
	authorizer        shared.Authorizer
	retry             common.RetryConfig
	eventPublisher    shared.EventPublisher
	businessMetrics   *telemetry.BusinessMetrics
	logger            *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	txScope common.TransactionScope,
	purchaseOrderRepo trade.PurchaseOrderRepository,
	salesOrderRepo trade.SalesOrderRepository,
	stock *inventoryapp.StockTracker,
	invoices *financeapp.InvoiceService,
	reorder *ReorderPolicy,
	numbers common.NumberGenerator,
	authorizer shared.Authorizer,
	retry common.RetryConfig,
) *WorkflowService {
	return &WorkflowService{
		txScope:           txScope,
		purchaseOrderRepo: purchaseOrderRepo,
		salesOrderRepo:    salesOrderRepo,
		stock:             stock,
		invoices:          invoices,
		reorder:           reorder,
		numbers:           numbers,
		authorizer:        authorizer,
		retry:             retry,
		logger:            zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *WorkflowService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *WorkflowService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLogger sets the logger
func (s *WorkflowService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// transitionRun is the state a transition attempt builds up
type transitionRun struct {
	collector   common.EventCollector
	sideEffects SideEffects
	invoice     *finance.Invoice
	autoOrders  []*trade.PurchaseOrder
}

// runTransition executes fn in a transaction, retrying on optimistic lock
// conflicts with fresh state, and publishes the collected events after commit.
func (s *WorkflowService) runTransition(
	ctx context.Context,
	operation string,
	fn func(repos common.TransactionalRepositories, run *transitionRun) error,
) (_ *transitionRun, err error) {
	ctx, span := telemetry.StartOperationSpan(ctx, "workflow", operation)
	start := time.Now()
	defer func() {
		telemetry.EndSpan(span, err)
		if s.businessMetrics != nil {
			s.businessMetrics.RecordOperation(ctx, operation, time.Since(start), err)
		}
	}()

	var run *transitionRun
	err = common.RetryOnConflict(ctx, s.retry, func(attempt int) error {
		run = &transitionRun{sideEffects: newSideEffects()}
		if attempt > 0 {
			telemetry.AddEvent(ctx, "conflict_retry", telemetry.SpanAttrAttempt, attempt)
			s.logger.Debug("Retrying transition after concurrency conflict",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
			)
			if s.businessMetrics != nil {
				s.businessMetrics.RecordConflictRetry(ctx, operation)
			}
		}
		return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			return fn(repos, run)
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, run.collector.Events())
	s.invoices.RecordGenerated(ctx, run.invoice)
	if s.businessMetrics != nil {
		for _, po := range run.autoOrders {
			s.businessMetrics.RecordAutoReorder(ctx, po.SourceProductID.String())
		}
	}
	return run, nil
}

// reorderWithin runs the reorder policy for an adjusted item and records the result
func (s *WorkflowService) reorderWithin(ctx context.Context, repos common.TransactionalRepositories, run *transitionRun, item *inventory.StockItem) error {
	if s.reorder == nil || !item.NeedsReorder() {
		return nil
	}
	po, err := s.reorder.ReorderWithin(ctx, repos, &run.collector, item)
	if err != nil || po == nil {
		return err
	}
	run.autoOrders = append(run.autoOrders, po)
	run.sideEffects.AutoPurchaseOrders = append(run.sideEffects.AutoPurchaseOrders, ToPurchaseOrderResponse(po))
	return nil
}

func (s *WorkflowService) recordTransition(ctx context.Context, orderType telemetry.OrderType, action string) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderTransition(ctx, orderType, action)
	}
}

func toInvoiceLines(items []trade.OrderItem) []finance.InvoiceLine {
	lines := make([]finance.InvoiceLine, len(items))
	for i, item := range items {
		lines[i] = finance.InvoiceLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return lines
}
