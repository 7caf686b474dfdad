package handler

import (
	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// ExpensesBreakdownQuery selects the calendar period of the breakdown
type ExpensesBreakdownQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=month quarter year"`
}

// DashboardHandler serves the read-only financial projections
type DashboardHandler struct {
	BaseHandler
	dashboard *financeapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *financeapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// ExpensesBreakdown godoc
// @Summary      Expenses by category for the current period
// @Tags         dashboard
// @Produce      json
// @Param        period query string false "month (default), quarter or year"
// @Success      200 {object} dto.Response{data=financeapp.ExpensesBreakdownResponse}
// @Router       /dashboard/expenses [get]
func (h *DashboardHandler) ExpensesBreakdown(c *gin.Context) {
	var q ExpensesBreakdownQuery
	if !h.bindQuery(c, &q) {
		return
	}
	breakdown, err := h.dashboard.GetExpensesBreakdown(c.Request.Context(), q.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}

// MonthComparison godoc
// @Summary      Income and expenses of this month against the previous one
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=financeapp.MonthComparisonResponse}
// @Router       /dashboard/month-comparison [get]
func (h *DashboardHandler) MonthComparison(c *gin.Context) {
	comparison, err := h.dashboard.GetMonthComparison(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comparison)
}

// Summary returns the headline dashboard figures
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.GetDashboardSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
