package handler

import (
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PayInvoiceRequest selects the account an invoice is settled from
type PayInvoiceRequest struct {
	BankAccountID string `json:"bank_account_id" binding:"required,uuid"`
	Notes         string `json:"notes" binding:"max=500"`
}

// ListInvoicesQuery holds the list filters for invoices
type ListInvoicesQuery struct {
	dto.ListRequest
	Status          string `form:"status" binding:"omitempty,oneof=unpaid paid"`
	SourceOrderType string `form:"source_order_type" binding:"omitempty,oneof=purchase sales"`
}

// InvoiceHandler serves invoices and their settlement
type InvoiceHandler struct {
	BaseHandler
	invoices *financeapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *financeapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status query string false "unpaid or paid"
// @Param        source_order_type query string false "purchase or sales"
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var q ListInvoicesQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if q.SourceOrderType != "" {
		filter.Filters["source_order_type"] = q.SourceOrderType
	}

	page, err := h.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo} "INVOICE_NOT_FOUND"
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Pay godoc
// @Summary      Pay an invoice from a bank account
// @Description  Sales invoices credit the account, purchase invoices debit it.
// @Description  A second payment of the same invoice fails with ALREADY_PAID.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body PayInvoiceRequest true "Payment"
// @Success      200 {object} dto.Response{data=financeapp.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo} "ALREADY_PAID"
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "INSUFFICIENT_FUNDS"
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, ok := h.parseID(c, "invoice")
	if !ok {
		return
	}
	var req PayInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.invoices.PayInvoice(c.Request.Context(), id, financeapp.PayInvoiceRequest{
		BankAccountID: uuid.MustParse(req.BankAccountID),
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
