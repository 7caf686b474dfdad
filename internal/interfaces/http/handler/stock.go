package handler

import (
	inventoryapp "github.com/erp/ledger-engine/internal/application/inventory"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateStockItemRequest represents a request to register a product for stock tracking
type CreateStockItemRequest struct {
	SKU                 string          `json:"sku" binding:"required,max=50"`
	Name                string          `json:"name" binding:"required,max=200"`
	MinStockLevel       int             `json:"min_stock_level" binding:"gte=0"`
	UnitCost            decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	OpeningStock        int             `json:"opening_stock" binding:"gte=0"`
	PreferredSupplierID string          `json:"preferred_supplier_id" binding:"omitempty,uuid"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	Delta int    `json:"delta" binding:"required,ne=0"`
	Note  string `json:"note" binding:"max=500"`
}

// ListStockItemsQuery holds the list filters for stock items
type ListStockItemsQuery struct {
	dto.ListRequest
	BelowMinimum bool   `form:"below_minimum"`
	SKU          string `form:"sku" binding:"max=50"`
}

// StockHandler serves stock items and their movement history
type StockHandler struct {
	BaseHandler
	stock *inventoryapp.StockTracker
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventoryapp.StockTracker) *StockHandler {
	return &StockHandler{stock: stock}
}

// Create godoc
// @Summary      Register a stock item
// @Tags         stock-items
// @Accept       json
// @Produce      json
// @Param        request body CreateStockItemRequest true "Stock item"
// @Success      201 {object} dto.Response{data=inventoryapp.StockItemResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo} "SKU already registered"
// @Router       /stock-items [post]
func (h *StockHandler) Create(c *gin.Context) {
	var req CreateStockItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq := inventoryapp.CreateStockItemRequest{
		SKU:           req.SKU,
		Name:          req.Name,
		MinStockLevel: req.MinStockLevel,
		UnitCost:      req.UnitCost,
		OpeningStock:  req.OpeningStock,
	}
	if req.PreferredSupplierID != "" {
		supplierID := uuid.MustParse(req.PreferredSupplierID)
		appReq.PreferredSupplierID = &supplierID
	}

	item, err := h.stock.CreateStockItem(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get godoc
// @Summary      Get a stock item
// @Tags         stock-items
// @Param        id path string true "Product ID" format(uuid)
// @Router       /stock-items/{id} [get]
func (h *StockHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "product")
	if !ok {
		return
	}
	item, err := h.stock.GetStockItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List godoc
// @Summary      List stock items
// @Tags         stock-items
// @Param        below_minimum query bool false "Only items below their minimum stock level"
// @Param        sku query string false "Exact SKU"
// @Router       /stock-items [get]
func (h *StockHandler) List(c *gin.Context) {
	var q ListStockItemsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	if q.BelowMinimum {
		filter.Filters["below_minimum"] = true
	}
	if q.SKU != "" {
		filter.Filters["sku"] = q.SKU
	}

	page, err := h.stock.ListStockItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Adjust godoc
// @Summary      Adjust stock manually
// @Description  Applies a signed delta. Results below zero are rejected with NEGATIVE_STOCK.
// @Tags         stock-items
// @Accept       json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.Response{data=inventoryapp.AdjustStockResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock-items/{id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := h.parseID(c, "product")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.stock.Adjust(c.Request.Context(), id, inventoryapp.AdjustStockRequest{
		Delta: req.Delta,
		Note:  req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reorder reports whether the item is below its minimum level and the
// quantity an auto purchase order would request.
func (h *StockHandler) Reorder(c *gin.Context) {
	id, ok := h.parseID(c, "product")
	if !ok {
		return
	}
	check, err := h.stock.CheckReorder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Movements lists the stock movement log of one item, newest first
func (h *StockHandler) Movements(c *gin.Context) {
	id, ok := h.parseID(c, "product")
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	movements, err := h.stock.ListMovements(c.Request.Context(), id, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}
