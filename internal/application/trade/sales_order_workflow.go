package trade

import (
	"context"
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

// CreateSalesOrder creates a pending sales order. Stock is not reserved until confirmation.
func (s *WorkflowService) CreateSalesOrder(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapSalesOrderCreate); err != nil {
		return nil, err
	}
	items, err := toOrderItems(req.Items)
	if err != nil {
		return nil, err
	}
	order, err := trade.NewSalesOrder(s.numbers.Next(common.PrefixSalesOrder), req.CustomerID, items)
	if err != nil {
		return nil, err
	}
	order.Notes = strings.TrimSpace(req.Notes)

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		if err := ensureProductsExist(ctx, repos, items); err != nil {
			return err
		}
		return repos.SalesOrderRepo().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	var collector common.EventCollector
	collector.Collect(order)
	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetSalesOrder retrieves a sales order by ID
func (s *WorkflowService) GetSalesOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.salesOrderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ListSalesOrders lists sales orders; filters are "status" and "customer_id"
func (s *WorkflowService) ListSalesOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[SalesOrderResponse], error) {
	orders, err := s.salesOrderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.salesOrderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToSalesOrderResponses(orders), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ConfirmSalesOrder confirms a pending order. All lines are checked against
// stock before anything is decremented, so a shortage of any product fails
// with ErrInsufficientStock and changes nothing. Then stock is decremented in
// product ID order, the sales invoice is generated and every product left
// below its minimum level is reordered.
func (s *WorkflowService) ConfirmSalesOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderTransitionResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapSalesOrderConfirm); err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	run, err := s.runTransition(ctx, "sales_order_confirm", func(repos common.TransactionalRepositories, run *transitionRun) error {
		var err error
		order, err = repos.SalesOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		// order state first
		demand, err := order.Confirm()
		if err != nil {
			return err
		}
		if err := repos.SalesOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		run.collector.Collect(order)

		// lock every product and check availability before any decrement
		items := make([]*inventory.StockItem, len(demand))
		for i, pq := range demand {
			item, err := repos.StockItemRepo().FindByIDForUpdate(ctx, pq.ProductID)
			if err != nil {
				return err
			}
			if !item.CanSupply(pq.Quantity) {
				return shared.ErrInsufficientStock.Errorf(
					"Product %s has %d in stock, order %s needs %d", item.SKU, item.CurrentStock, order.OrderNumber, pq.Quantity)
			}
			items[i] = item
		}

		for i, pq := range demand {
			movement, err := s.stock.ApplyWithin(ctx, repos, &run.collector, items[i], -pq.Quantity, inventory.StockCause{
				Type:  inventory.CauseTypeSalesOrder,
				RefID: order.ID,
				Note:  order.OrderNumber,
			})
			if err != nil {
				return err
			}
			run.sideEffects.StockChanges = append(run.sideEffects.StockChanges, inventoryapp.ToStockChange(items[i], movement))
		}

		// invoice
		invoice, err := s.invoices.GenerateInvoice(ctx, repos, finance.SourceOrderTypeSales, order.ID, toInvoiceLines(order.Items))
		if err != nil {
			return err
		}
		run.collector.Collect(invoice)
		run.invoice = invoice
		invoiceResponse := financeapp.ToInvoiceResponse(invoice)
		run.sideEffects.Invoice = &invoiceResponse

		// auto-reorder
		for _, item := range items {
			if err := s.reorderWithin(ctx, repos, run, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, telemetry.OrderTypeSales, string(trade.SalesOrderActionConfirm))
	s.logger.Info("Sales order confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.Int("stock_changes", len(run.sideEffects.StockChanges)),
		zap.Int("auto_purchase_orders", len(run.sideEffects.AutoPurchaseOrders)),
	)

	return &SalesOrderTransitionResponse{
		Order:       ToSalesOrderResponse(order),
		SideEffects: run.sideEffects,
	}, nil
}

// ShipSalesOrder marks a confirmed order as shipped
func (s *WorkflowService) ShipSalesOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderTransitionResponse, error) {
	return s.simpleSalesTransition(ctx, orderID, shared.CapSalesOrderShip, trade.SalesOrderActionShip,
		func(o *trade.SalesOrder) error { return o.Ship() })
}

// DeliverSalesOrder marks a shipped order as delivered
func (s *WorkflowService) DeliverSalesOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderTransitionResponse, error) {
	return s.simpleSalesTransition(ctx, orderID, shared.CapSalesOrderDeliver, trade.SalesOrderActionDeliver,
		func(o *trade.SalesOrder) error { return o.Deliver() })
}

// CancelSalesOrder cancels a pending order
func (s *WorkflowService) CancelSalesOrder(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*SalesOrderTransitionResponse, error) {
	return s.simpleSalesTransition(ctx, orderID, shared.CapSalesOrderCancel, trade.SalesOrderActionCancel,
		func(o *trade.SalesOrder) error { return o.Cancel(strings.TrimSpace(req.Reason)) })
}

func (s *WorkflowService) simpleSalesTransition(
	ctx context.Context,
	orderID uuid.UUID,
	capability shared.Capability,
	action trade.SalesOrderAction,
	apply func(*trade.SalesOrder) error,
) (*SalesOrderTransitionResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, capability); err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	run, err := s.runTransition(ctx, "sales_order_"+string(action), func(repos common.TransactionalRepositories, run *transitionRun) error {
		var err error
		order, err = repos.SalesOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		if err := repos.SalesOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		run.collector.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, telemetry.OrderTypeSales, string(action))
	return &SalesOrderTransitionResponse{
		Order:       ToSalesOrderResponse(order),
		SideEffects: run.sideEffects,
	}, nil
}
