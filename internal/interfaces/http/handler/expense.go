package handler

import (
	"time"

	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordExpenseRequest represents an operating expense paid from a bank account
type RecordExpenseRequest struct {
	Category      string          `json:"category" binding:"required,max=50"`
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	BankAccountID string          `json:"bank_account_id" binding:"required,uuid"`
	Notes         string          `json:"notes" binding:"max=500"`
	// RFC 3339 timestamp or YYYY-MM-DD; defaults to now
	IncurredAt string `json:"incurred_at"`
}

// ListExpensesQuery holds the list filters for expenses
type ListExpensesQuery struct {
	dto.ListRequest
	Category      string `form:"category" binding:"max=50"`
	BankAccountID string `form:"bank_account_id" binding:"omitempty,uuid"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// ExpenseHandler serves operating expenses
type ExpenseHandler struct {
	BaseHandler
	expenses *financeapp.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenses *financeapp.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// Create godoc
// @Summary      Record an expense
// @Description  Debits the bank account with an expense transaction
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body RecordExpenseRequest true "Expense"
// @Success      201 {object} dto.Response{data=financeapp.ExpenseResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "INSUFFICIENT_FUNDS"
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req RecordExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq := financeapp.RecordExpenseRequest{
		Category:      req.Category,
		Amount:        req.Amount,
		BankAccountID: uuid.MustParse(req.BankAccountID),
		Notes:         req.Notes,
	}
	if req.IncurredAt != "" {
		t, err := parseDateTime(req.IncurredAt)
		if err != nil {
			h.BadRequest(c, "Invalid incurred_at, expected RFC 3339 or YYYY-MM-DD")
			return
		}
		appReq.IncurredAt = &t
	}

	expense, err := h.expenses.RecordExpense(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

// List godoc
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Param        category query string false "Expense category"
// @Param        bank_account_id query string false "Account ID" format(uuid)
// @Param        from query string false "Incurred at or after (RFC 3339 or YYYY-MM-DD)"
// @Param        to query string false "Incurred before (RFC 3339 or YYYY-MM-DD)"
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var q ListExpensesQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	if q.Category != "" {
		filter.Filters["category"] = q.Category
	}
	if q.BankAccountID != "" {
		filter.Filters["bank_account_id"] = uuid.MustParse(q.BankAccountID)
	}
	for key, raw := range map[string]string{"from": q.From, "to": q.To} {
		if raw == "" {
			continue
		}
		t, err := parseDateTime(raw)
		if err != nil {
			h.BadRequest(c, "Invalid "+key+" date, expected RFC 3339 or YYYY-MM-DD")
			return
		}
		filter.Filters[key] = t
	}

	expenses, err := h.expenses.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expenses)
}

// parseDateTime accepts RFC 3339 timestamps and plain dates (UTC midnight)
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
