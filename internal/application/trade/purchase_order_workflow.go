package trade

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/ledger-engine/internal/application/common"
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/inventory"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/trade"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePurchaseOrder creates a pending purchase order. Every product must be
// a known stock item.
func (s *WorkflowService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapPurchaseOrderCreate); err != nil {
		return nil, err
	}
	items, err := toOrderItems(req.Items)
	if err != nil {
		return nil, err
	}
	order, err := trade.NewPurchaseOrder(s.numbers.Next(common.PrefixPurchaseOrder), req.SupplierID, items)
	if err != nil {
		return nil, err
	}
	order.Notes = strings.TrimSpace(req.Notes)

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		if err := ensureProductsExist(ctx, repos, items); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	var collector common.EventCollector
	collector.Collect(order)
	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetPurchaseOrder retrieves a purchase order by ID
func (s *WorkflowService) GetPurchaseOrder(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.purchaseOrderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// ListPurchaseOrders lists purchase orders; filters are "status",
// "supplier_id" and "auto_generated"
func (s *WorkflowService) ListPurchaseOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[PurchaseOrderResponse], error) {
	orders, err := s.purchaseOrderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.purchaseOrderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPurchaseOrderResponses(orders), total, filter.Page, filter.PageSize)
	return &page, nil
}

// OrderPurchaseOrder places a pending order with its supplier
func (s *WorkflowService) OrderPurchaseOrder(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderTransitionResponse, error) {
	return s.simplePurchaseTransition(ctx, orderID, shared.CapPurchaseOrderOrder, trade.PurchaseOrderActionOrder,
		func(o *trade.PurchaseOrder) error { return o.Order() })
}

// CancelPurchaseOrder cancels a pending order
func (s *WorkflowService) CancelPurchaseOrder(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*PurchaseOrderTransitionResponse, error) {
	return s.simplePurchaseTransition(ctx, orderID, shared.CapPurchaseOrderCancel, trade.PurchaseOrderActionCancel,
		func(o *trade.PurchaseOrder) error { return o.Cancel(strings.TrimSpace(req.Reason)) })
}

func (s *WorkflowService) simplePurchaseTransition(
	ctx context.Context,
	orderID uuid.UUID,
	capability shared.Capability,
	action trade.PurchaseOrderAction,
	apply func(*trade.PurchaseOrder) error,
) (*PurchaseOrderTransitionResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, capability); err != nil {
		return nil, err
	}

	var order *trade.PurchaseOrder
	run, err := s.runTransition(ctx, "purchase_order_"+string(action), func(repos common.TransactionalRepositories, run *transitionRun) error {
		var err error
		order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		run.collector.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, telemetry.OrderTypePurchase, string(action))
	return &PurchaseOrderTransitionResponse{
		Order:       ToPurchaseOrderResponse(order),
		SideEffects: run.sideEffects,
	}, nil
}

// ReceivePurchaseOrder books the goods of an ordered purchase order: the
// order becomes received, every product's stock rises by its quantity in
// product ID order with the supplier remembered as last supplier, and the
// purchase invoice is generated unless one exists.
//
// Two concurrent receives of the same order are serialized on the order row;
// the loser sees the order already received and fails with ErrInvalidTransition.
func (s *WorkflowService) ReceivePurchaseOrder(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderTransitionResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapPurchaseOrderReceive); err != nil {
		return nil, err
	}

	var order *trade.PurchaseOrder
	run, err := s.runTransition(ctx, "purchase_order_receive", func(repos common.TransactionalRepositories, run *transitionRun) error {
		var err error
		order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		// order state first
		received, err := order.Receive()
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		run.collector.Collect(order)

		// stock, in product ID order
		for _, pq := range received {
			item, err := repos.StockItemRepo().FindByIDForUpdate(ctx, pq.ProductID)
			if err != nil {
				return err
			}
			item.RecordSupplier(order.SupplierID)
			movement, err := s.stock.ApplyWithin(ctx, repos, &run.collector, item, pq.Quantity, inventory.StockCause{
				Type:  inventory.CauseTypePurchaseOrder,
				RefID: order.ID,
				Note:  order.OrderNumber,
			})
			if err != nil {
				return err
			}
			run.sideEffects.StockChanges = append(run.sideEffects.StockChanges, inventoryapp.ToStockChange(item, movement))
		}

		// invoice
		invoice, err := s.invoices.GenerateInvoice(ctx, repos, finance.SourceOrderTypePurchase, order.ID, toInvoiceLines(order.Items))
		switch {
		case errors.Is(err, shared.ErrDuplicateInvoice):
			s.logger.Info("Purchase order already invoiced",
				zap.String("order_number", order.OrderNumber),
			)
		case err != nil:
			return err
		default:
			run.collector.Collect(invoice)
			run.invoice = invoice
			invoiceResponse := financeapp.ToInvoiceResponse(invoice)
			run.sideEffects.Invoice = &invoiceResponse
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, telemetry.OrderTypePurchase, string(trade.PurchaseOrderActionReceive))
	s.logger.Info("Purchase order received",
		zap.String("order_number", order.OrderNumber),
		zap.Int("stock_changes", len(run.sideEffects.StockChanges)),
	)

	return &PurchaseOrderTransitionResponse{
		Order:       ToPurchaseOrderResponse(order),
		SideEffects: run.sideEffects,
	}, nil
}

// ensureProductsExist fails with ErrProductNotFound for an unknown product
func ensureProductsExist(ctx context.Context, repos common.TransactionalRepositories, items []trade.OrderItem) error {
	for _, pq := range trade.QuantitiesByProduct(items) {
		if _, err := repos.StockItemRepo().FindByID(ctx, pq.ProductID); err != nil {
			return err
		}
	}
	return nil
}
