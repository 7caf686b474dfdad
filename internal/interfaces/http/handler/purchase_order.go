package handler

import (
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	tradeapp "github.com/erp/ledger-engine/internal/application/trade"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one line of an order creation request
type OrderItemInput struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
}

func toOrderItems(items []OrderItemInput) []tradeapp.OrderItemInput {
	out := make([]tradeapp.OrderItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, tradeapp.OrderItemInput{
			// validated by the uuid binding tag
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}

// CancelOrderRequest is the body of both cancel endpoints
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID string           `json:"supplier_id" binding:"required,uuid"`
	Items      []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes      string           `json:"notes" binding:"max=1000"`
}

// ListPurchaseOrdersQuery holds the list filters for purchase orders
type ListPurchaseOrdersQuery struct {
	dto.ListRequest
	Status          string `form:"status" binding:"omitempty,oneof=pending ordered received cancelled"`
	SupplierID      string `form:"supplier_id" binding:"omitempty,uuid"`
	AutoGenerated   *bool  `form:"auto_generated"`
	SourceProductID string `form:"source_product_id" binding:"omitempty,uuid"`
}

// PurchaseOrderHandler serves the purchase order lifecycle
type PurchaseOrderHandler struct {
	BaseHandler
	workflow *tradeapp.WorkflowService
	invoices *financeapp.InvoiceService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(workflow *tradeapp.WorkflowService, invoices *financeapp.InvoiceService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{workflow: workflow, invoices: invoices}
}

// Create godoc
// @Summary      Create a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} dto.Response{data=tradeapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.workflow.CreatePurchaseOrder(c.Request.Context(), tradeapp.CreatePurchaseOrderRequest{
		SupplierID: uuid.MustParse(req.SupplierID),
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
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.PurchaseOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	order, err := h.workflow.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Param        status query string false "pending, ordered, received or cancelled"
// @Param        auto_generated query bool false "Only orders raised by the reorder policy"
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var q ListPurchaseOrdersQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if q.SupplierID != "" {
		filter.Filters["supplier_id"] = uuid.MustParse(q.SupplierID)
	}
	if q.AutoGenerated != nil {
		filter.Filters["auto_generated"] = *q.AutoGenerated
	}
	if q.SourceProductID != "" {
		filter.Filters["source_product_id"] = uuid.MustParse(q.SourceProductID)
	}

	page, err := h.workflow.ListPurchaseOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Order godoc
// @Summary      Place a pending purchase order with the supplier
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.PurchaseOrderTransitionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /purchase-orders/{id}/order [post]
func (h *PurchaseOrderHandler) Order(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	result, err := h.workflow.OrderPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Receive godoc
// @Summary      Receive an ordered purchase order
// @Description  Adds the ordered quantities to stock and generates the supplier invoice
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.PurchaseOrderTransitionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	result, err := h.workflow.ReceivePurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	result, err := h.workflow.CancelPurchaseOrder(c.Request.Context(), id, tradeapp.CancelOrderRequest{Reason: req.Reason})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Invoice returns the supplier invoice generated when the order was received
func (h *PurchaseOrderHandler) Invoice(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoiceForOrder(c.Request.Context(), finance.SourceOrderTypePurchase, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
