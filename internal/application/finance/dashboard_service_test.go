package finance_test

import (
	"context"
	"testing"
	"time"

	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodRange(t *testing.T) {
	at := time.Date(2026, time.August, 17, 13, 5, 0, 0, time.UTC)

	tests := []struct {
		period   string
		from, to time.Time
	}{
		{"", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"month", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"quarter", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)},
		{"year", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			from, to, err := financeapp.PeriodRange(tt.period, at)
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}

	_, _, err := financeapp.PeriodRange("week", at)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PERIOD", domainErr.Code)
}

func TestDashboardService_ExpensesBreakdown(t *testing.T) {
	e := testutil.NewEngine(t)
	ctx := testutil.AdminContext()
	account := e.OpenAccount(t, "Main", "10000.00")

	for _, req := range []financeapp.RecordExpenseRequest{
		{Category: "rent", Amount: testutil.D("300"), IncurredAt: day(2026, time.March, 2)},
		{Category: "office", Amount: testutil.D("100"), IncurredAt: day(2026, time.March, 20)},
		{Category: "rent", Amount: testutil.D("50"), IncurredAt: day(2026, time.February, 10)},
		{Category: "tax", Amount: testutil.D("25"), IncurredAt: day(2025, time.December, 30)},
	} {
		req.BankAccountID = account.ID
		_, err := e.Expenses.RecordExpense(ctx, req)
		require.NoError(t, err)
	}
	e.Dashboard.SetClock(func() time.Time { return time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC) })

	month, err := e.Dashboard.GetExpensesBreakdown(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "month", month.Period)
	assert.Equal(t, "400.00", month.Total)
	require.Len(t, month.Categories, 2)
	assert.Equal(t, financeapp.CategoryBreakdown{Category: "rent", Total: "300.00", Count: 1, Percentage: "75.00"}, month.Categories[0])
	assert.Equal(t, financeapp.CategoryBreakdown{Category: "office", Total: "100.00", Count: 1, Percentage: "25.00"}, month.Categories[1])

	quarter, err := e.Dashboard.GetExpensesBreakdown(context.Background(), "quarter")
	require.NoError(t, err)
	assert.Equal(t, "450.00", quarter.Total)
	assert.Equal(t, "rent", quarter.Categories[0].Category)
	assert.Equal(t, int64(2), quarter.Categories[0].Count)

	year, err := e.Dashboard.GetExpensesBreakdown(context.Background(), "year")
	require.NoError(t, err)
	assert.Equal(t, "450.00", year.Total)

	_, err = e.Dashboard.GetExpensesBreakdown(context.Background(), "decade")
	require.Error(t, err)
}

func TestDashboardService_EmptyPeriod(t *testing.T) {
	e := testutil.NewEngine(t)

	breakdown, err := e.Dashboard.GetExpensesBreakdown(context.Background(), "month")
	require.NoError(t, err)
	assert.Equal(t, "0.00", breakdown.Total)
	assert.Empty(t, breakdown.Categories)
}

func TestDashboardService_MonthComparisonAndSummary(t *testing.T) {
	e := testutil.NewEngine(t)
	ctx := testutil.AdminContext()
	account := e.OpenAccount(t, "Main", "1000.00")
	e.OpenAccount(t, "Savings", "500.00")

	_, err := e.Expenses.RecordExpense(ctx, financeapp.RecordExpenseRequest{
		Category: "salary", Amount: testutil.D("200"), BankAccountID: account.ID,
	})
	require.NoError(t, err)

	paid := confirmedSale(t, e, 3, "10.00").SideEffects.Invoice
	_, err = e.Invoices.PayInvoice(ctx, paid.ID, financeapp.PayInvoiceRequest{BankAccountID: account.ID})
	require.NoError(t, err)
	confirmedSale(t, e, 1, "70.00")

	comparison, err := e.Dashboard.GetMonthComparison(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30.00", comparison.CurrentMonth.Income, "opening balances are not income")
	assert.Equal(t, "200.00", comparison.CurrentMonth.Expenses)
	assert.Equal(t, "-170.00", comparison.CurrentMonth.Net)
	assert.Equal(t, "0.00", comparison.PreviousMonth.Income)
	assert.Empty(t, comparison.IncomeChangePercent)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), comparison.CurrentMonth.Month)

	summary, err := e.Dashboard.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EGP", summary.Currency)
	assert.Equal(t, "1330.00", summary.TotalBalance)
	assert.Equal(t, 2, summary.BankAccountCount)
	assert.Empty(t, summary.OtherBalances)
	assert.Equal(t, "70.00", summary.Receivables)
	assert.Equal(t, int64(1), summary.UnpaidSalesCount)
	assert.Equal(t, "0.00", summary.Payables)
	assert.Equal(t, "30.00", summary.MonthIncome)
	assert.Equal(t, "200.00", summary.MonthExpenses)
	assert.Equal(t, int64(0), summary.LowStockCount)
}

func TestDashboardService_KeepsCurrenciesApart(t *testing.T) {
	e := testutil.NewEngine(t)
	ctx := testutil.AdminContext()
	e.OpenAccount(t, "Main", "1000.00")

	dollars, err := e.Ledger.OpenAccount(ctx, financeapp.CreateBankAccountRequest{
		Name: "Dollar", Currency: "USD", OpeningBalance: testutil.D("400.00"),
	})
	require.NoError(t, err)
	_, err = e.Expenses.RecordExpense(ctx, financeapp.RecordExpenseRequest{
		Category: "travel", Amount: testutil.D("150"), BankAccountID: dollars.ID,
	})
	require.NoError(t, err)

	summary, err := e.Dashboard.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000.00", summary.TotalBalance)
	assert.Equal(t, 2, summary.BankAccountCount)
	assert.Equal(t, "0.00", summary.MonthExpenses)
	assert.Equal(t, []financeapp.CurrencyBalance{{Currency: "USD", Balance: "250.00", AccountCount: 1}}, summary.OtherBalances)

	breakdown, err := e.Dashboard.GetExpensesBreakdown(context.Background(), "month")
	require.NoError(t, err)
	assert.Equal(t, "EGP", breakdown.Currency)
	assert.Equal(t, "0.00", breakdown.Total)
	assert.Empty(t, breakdown.Categories)

	comparison, err := e.Dashboard.GetMonthComparison(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.00", comparison.CurrentMonth.Expenses)
}
