package handler

import (
	"context"

	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	tradeapp "github.com/erp/ledger-engine/internal/application/trade"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	CustomerID string           `json:"customer_id" binding:"required,uuid"`
	Items      []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes      string           `json:"notes" binding:"max=1000"`
}

// ListSalesOrdersQuery holds the list filters for sales orders
type ListSalesOrdersQuery struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// SalesOrderHandler serves the sales order lifecycle
type SalesOrderHandler struct {
	BaseHandler
	workflow *tradeapp.WorkflowService
	invoices *financeapp.InvoiceService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(workflow *tradeapp.WorkflowService, invoices *financeapp.InvoiceService) *SalesOrderHandler {
	return &SalesOrderHandler{workflow: workflow, invoices: invoices}
}

// Create godoc
// @Summary      Create a sales order
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        request body CreateSalesOrderRequest true "Sales order"
// @Success      201 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales-orders [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req CreateSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.workflow.CreateSalesOrder(c.Request.Context(), tradeapp.CreateSalesOrderRequest{
		CustomerID: uuid.MustParse(req.CustomerID),
		Items:      toOrderItems(req.Items),
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get godoc
// @Summary      Get a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Router       /sales-orders/{id} [get]
func (h *SalesOrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	order, err := h.workflow.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List sales orders
// @Tags         sales-orders
// @Produce      json
// @Param        status query string false "pending, confirmed, shipped, delivered or cancelled"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Router       /sales-orders [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	var q ListSalesOrdersQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if q.CustomerID != "" {
		filter.Filters["customer_id"] = uuid.MustParse(q.CustomerID)
	}

	page, err := h.workflow.ListSalesOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Confirm godoc
// @Summary      Confirm a pending sales order
// @Description  Takes stock for every line or rejects the whole order with INSUFFICIENT_STOCK,
// @Description  then generates the customer invoice. Lines that leave a product below its
// @Description  minimum level raise an auto purchase order.
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderTransitionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales-orders/{id}/confirm [post]
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.workflow.ConfirmSalesOrder)
}

// Ship godoc
// @Summary      Ship a confirmed sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderTransitionResponse}
// @Router       /sales-orders/{id}/ship [post]
func (h *SalesOrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.workflow.ShipSalesOrder)
}

// Deliver marks a shipped order delivered
func (h *SalesOrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.workflow.DeliverSalesOrder)
}

// Cancel godoc
// @Summary      Cancel a sales order
// @Description  Only pending orders can be cancelled
// @Tags         sales-orders
// @Accept       json
// @Param        id path string true "Sales order ID" format(uuid)
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Router       /sales-orders/{id}/cancel [post]
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	result, err := h.workflow.CancelSalesOrder(c.Request.Context(), id, tradeapp.CancelOrderRequest{Reason: req.Reason})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Invoice returns the customer invoice generated when the order was confirmed
func (h *SalesOrderHandler) Invoice(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoiceForOrder(c.Request.Context(), finance.SourceOrderTypeSales, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

func (h *SalesOrderHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*tradeapp.SalesOrderTransitionResponse, error)) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	result, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
