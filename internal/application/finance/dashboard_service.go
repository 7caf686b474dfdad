package finance

import (
	"context"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Dashboard periods
const (
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

var hundred = decimal.NewFromInt(100)

// DashboardService serves read-only projections over committed ledger state.
// Each projection runs in one snapshot, and money figures only cover
// accounts held in the base currency.
type DashboardService struct {
	txScope      common.TransactionScope
	baseCurrency valueobject.Currency
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(txScope common.TransactionScope, baseCurrency valueobject.Currency) *DashboardService {
	if baseCurrency == "" {
		baseCurrency = valueobject.DefaultCurrency
	}
	return &DashboardService{
		txScope:      txScope,
		baseCurrency: baseCurrency,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

// PeriodRange returns [from, to) of the calendar month, quarter or year containing t
func PeriodRange(period string, t time.Time) (time.Time, time.Time, error) {
	switch period {
	case PeriodMonth, "":
		from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return from, from.AddDate(0, 1, 0), nil
	case PeriodQuarter:
		firstMonth := time.Month((int(t.Month())-1)/3*3 + 1)
		from := time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, t.Location())
		return from, from.AddDate(0, 3, 0), nil
	case PeriodYear:
		from := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		return from, from.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_PERIOD", "Period must be month, quarter or year")
}

// GetExpensesBreakdown sums the period's expenses per category
func (s *DashboardService) GetExpensesBreakdown(ctx context.Context, period string) (*ExpensesBreakdownResponse, error) {
	from, to, err := PeriodRange(period, s.now())
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodMonth
	}

	var totals []finance.CategoryTotal
	err = s.txScope.Snapshot(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		totals, err = repos.ReportRepo().SumExpensesByCategory(ctx, s.baseCurrency, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}

	categories := make([]CategoryBreakdown, len(totals))
	for i, t := range totals {
		share := decimal.Zero
		if sum.IsPositive() {
			share = t.Total.Mul(hundred).Div(sum)
		}
		categories[i] = CategoryBreakdown{
			Category:   string(t.Category),
			Total:      common.FormatAmount(t.Total),
			Count:      t.Count,
			Percentage: common.FormatAmount(share.RoundBank(2)),
		}
	}

	return &ExpensesBreakdownResponse{
		Period:     period,
		Currency:   string(s.baseCurrency),
		From:       from,
		To:         to,
		Total:      common.FormatAmount(sum),
		Categories: categories,
	}, nil
}

// GetMonthComparison compares income and expenses of the current and the previous month
func (s *DashboardService) GetMonthComparison(ctx context.Context) (*MonthComparisonResponse, error) {
	currentFrom, currentTo, _ := PeriodRange(PeriodMonth, s.now())
	previousFrom := currentFrom.AddDate(0, -1, 0)

	var current, previous finance.CashFlow
	err := s.txScope.Snapshot(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		if current, err = repos.ReportRepo().SumCashFlow(ctx, s.baseCurrency, currentFrom, currentTo); err != nil {
			return err
		}
		previous, err = repos.ReportRepo().SumCashFlow(ctx, s.baseCurrency, previousFrom, currentFrom)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &MonthComparisonResponse{
		Currency:              string(s.baseCurrency),
		CurrentMonth:          toMonthCashFlow(currentFrom, current),
		PreviousMonth:         toMonthCashFlow(previousFrom, previous),
		IncomeChangePercent:   percentChange(previous.Income, current.Income),
		ExpensesChangePercent: percentChange(previous.Expenses, current.Expenses),
	}, nil
}

// GetDashboardSummary returns the base currency balance, open receivables
// and payables, this month's cash flow and the number of products below their
// minimum stock, all read from one snapshot. Balances of accounts in other
// currencies are listed separately and never added to the total.
func (s *DashboardService) GetDashboardSummary(ctx context.Context) (*DashboardSummaryResponse, error) {
	now := s.now()
	from, to, _ := PeriodRange(PeriodMonth, now)

	var (
		balances              []finance.CurrencyTotal
		receivables, payables finance.InvoiceTotals
		flow                  finance.CashFlow
		lowStock              int64
	)
	err := s.txScope.Snapshot(ctx, func(repos common.TransactionalRepositories) error {
		reports := repos.ReportRepo()
		var err error
		if balances, err = reports.SumBalances(ctx); err != nil {
			return err
		}
		if receivables, err = reports.SumUnpaidInvoices(ctx, finance.SourceOrderTypeSales); err != nil {
			return err
		}
		if payables, err = reports.SumUnpaidInvoices(ctx, finance.SourceOrderTypePurchase); err != nil {
			return err
		}
		if flow, err = reports.SumCashFlow(ctx, s.baseCurrency, from, to); err != nil {
			return err
		}
		lowStock, err = repos.StockItemRepo().Count(ctx, shared.DefaultFilter().With("below_minimum", true))
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &DashboardSummaryResponse{
		Currency:            string(s.baseCurrency),
		TotalBalance:        common.FormatAmount(decimal.Zero),
		Receivables:         common.FormatAmount(receivables.Total),
		UnpaidSalesCount:    receivables.Count,
		Payables:            common.FormatAmount(payables.Total),
		UnpaidPurchaseCount: payables.Count,
		MonthIncome:         common.FormatAmount(flow.Income),
		MonthExpenses:       common.FormatAmount(flow.Expenses),
		LowStockCount:       lowStock,
		GeneratedAt:         now,
	}
	for _, b := range balances {
		resp.BankAccountCount += int(b.Accounts)
		if b.Currency == s.baseCurrency {
			resp.TotalBalance = common.FormatAmount(b.Total)
			continue
		}
		resp.OtherBalances = append(resp.OtherBalances, CurrencyBalance{
			Currency:     string(b.Currency),
			Balance:      common.FormatAmount(b.Total),
			AccountCount: b.Accounts,
		})
	}
	return resp, nil
}

func toMonthCashFlow(monthStart time.Time, flow finance.CashFlow) MonthCashFlow {
	return MonthCashFlow{
		Month:    monthStart.Format("2006-01"),
		Income:   common.FormatAmount(flow.Income),
		Expenses: common.FormatAmount(flow.Expenses),
		Net:      common.FormatAmount(flow.Income.Sub(flow.Expenses)),
	}
}

func percentChange(previous, current decimal.Decimal) string {
	if previous.IsZero() {
		return ""
	}
	return common.FormatAmount(current.Sub(previous).Mul(hundred).Div(previous).RoundBank(2))
}
