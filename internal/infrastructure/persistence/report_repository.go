package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository implements the dashboard ReportRepository using GORM.
// All queries are read-only aggregates over the ledger tables.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// SumExpensesByCategory returns expense totals per category for [from, to)
func (r *GormReportRepository) SumExpensesByCategory(ctx context.Context, currency valueobject.Currency, from, to time.Time) ([]finance.CategoryTotal, error) {
	var rows []struct {
		Category string
		Total    decimal.Decimal
		Count    int64
	}
	if err := r.db.WithContext(ctx).Table("expenses").
		Select("expenses.category AS category, COALESCE(SUM(expenses.amount), 0) AS total, COUNT(*) AS count").
		Joins("JOIN bank_accounts ON bank_accounts.id = expenses.bank_account_id").
		Where("bank_accounts.currency = ?", currency).
		Where("expenses.incurred_at >= ? AND expenses.incurred_at < ?", from, to).
		Group("expenses.category").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]finance.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.CategoryTotal{
			Category: finance.ExpenseCategory(row.Category),
			Total:    row.Total,
			Count:    row.Count,
		}
	}
	return totals, nil
}

// SumCashFlow sums transactions dated in [from, to); adjustments are excluded
func (r *GormReportRepository) SumCashFlow(ctx context.Context, currency valueobject.Currency, from, to time.Time) (finance.CashFlow, error) {
	var flow finance.CashFlow
	var err error
	if flow.Income, err = r.sumTransactions(ctx, currency, finance.DirectionIn, from, to); err != nil {
		return finance.CashFlow{}, err
	}
	if flow.Expenses, err = r.sumTransactions(ctx, currency, finance.DirectionOut, from, to); err != nil {
		return finance.CashFlow{}, err
	}
	return flow, nil
}

func (r *GormReportRepository) sumTransactions(ctx context.Context, currency valueobject.Currency, direction finance.Direction, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Table("transactions").
		Select("COALESCE(SUM(transactions.amount), 0)").
		Joins("JOIN bank_accounts ON bank_accounts.id = transactions.bank_account_id").
		Where("bank_accounts.currency = ?", currency).
		Where("transactions.direction = ?", direction).
		Where("transactions.cause_type <> ?", finance.CauseTypeAdjustment).
		Where("transactions.date >= ? AND transactions.date < ?", from, to).
		Scan(&total).Error
	return total, err
}

// SumUnpaidInvoices returns the count and total of unpaid invoices of one order type
func (r *GormReportRepository) SumUnpaidInvoices(ctx context.Context, orderType finance.SourceOrderType) (finance.InvoiceTotals, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Table("invoices").
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("status = ? AND source_order_type = ?", finance.InvoiceStatusUnpaid, orderType).
		Scan(&row).Error
	if err != nil {
		return finance.InvoiceTotals{}, err
	}
	return finance.InvoiceTotals{Count: row.Count, Total: row.Total}, nil
}

// SumBalances groups account balances by currency
func (r *GormReportRepository) SumBalances(ctx context.Context) ([]finance.CurrencyTotal, error) {
	var rows []struct {
		Currency string
		Accounts int64
		Total    decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Table("bank_accounts").
		Select("currency, COUNT(*) AS accounts, COALESCE(SUM(balance), 0) AS total").
		Group("currency").
		Order("currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]finance.CurrencyTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.CurrencyTotal{
			Currency: valueobject.Currency(row.Currency),
			Accounts: row.Accounts,
			Total:    row.Total,
		}
	}
	return totals, nil
}

// Ensure GormReportRepository implements ReportRepository
var _ finance.ReportRepository = (*GormReportRepository)(nil)
