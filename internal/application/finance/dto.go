package finance

import (
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Bank Account DTOs ====================

// CreateBankAccountRequest represents a request to open a bank account
type CreateBankAccountRequest struct {
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// ToBankAccountResponse converts a domain BankAccount to its response DTO
func ToBankAccountResponse(a *finance.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Currency:  string(a.Currency),
		Balance:   common.FormatAmount(a.Balance),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Version:   a.Version,
	}
}

// ToBankAccountResponses converts a slice of accounts
func ToBankAccountResponses(accounts []finance.BankAccount) []BankAccountResponse {
	responses := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToBankAccountResponse(&accounts[i])
	}
	return responses
}

// ==================== Transaction DTOs ====================

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            uuid.UUID `json:"id"`
	BankAccountID uuid.UUID `json:"bank_account_id"`
	Direction     string    `json:"direction"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	Notes         string    `json:"notes,omitempty"`
	CauseType     string    `json:"cause_type"`
	CauseID       uuid.UUID `json:"cause_id"`
	Date          time.Time `json:"date"`
}

// ToTransactionResponse converts a domain Transaction to its response DTO
func ToTransactionResponse(tx *finance.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		BankAccountID: tx.BankAccountID,
		Direction:     string(tx.Direction),
		Amount:        common.FormatAmount(tx.Amount),
		BalanceAfter:  common.FormatAmount(tx.BalanceAfter),
		Notes:         tx.Notes,
		CauseType:     string(tx.CauseType),
		CauseID:       tx.CauseID,
		Date:          tx.Date,
	}
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(txs []finance.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}

// PostingResponse is the result of a direct credit or debit
type PostingResponse struct {
	Account     BankAccountResponse `json:"account"`
	Transaction TransactionResponse `json:"transaction"`
}

// ReconciliationResponse compares the cached balance with the transaction log
type ReconciliationResponse struct {
	AccountID        uuid.UUID `json:"account_id"`
	Balance          string    `json:"balance"`
	LogSum           string    `json:"log_sum"`
	Difference       string    `json:"difference"`
	TransactionCount int64     `json:"transaction_count"`
	Consistent       bool      `json:"consistent"`
	CheckedAt        time.Time `json:"checked_at"`
}

// ==================== Invoice DTOs ====================

// PayInvoiceRequest represents a request to settle an invoice from a bank account
type PayInvoiceRequest struct {
	BankAccountID uuid.UUID `json:"bank_account_id"`
	Notes         string    `json:"notes"`
}

// InvoiceLineResponse is one snapshotted order line
type InvoiceLineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Amount    string    `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                   uuid.UUID             `json:"id"`
	InvoiceNumber        string                `json:"invoice_number"`
	SourceOrderID        uuid.UUID             `json:"source_order_id"`
	SourceOrderType      string                `json:"source_order_type"`
	Lines                []InvoiceLineResponse `json:"lines"`
	Subtotal             string                `json:"subtotal"`
	Tax                  string                `json:"tax"`
	Total                string                `json:"total"`
	Status               string                `json:"status"`
	Overdue              bool                  `json:"overdue"`
	DueDate              time.Time             `json:"due_date"`
	PaidAt               *time.Time            `json:"paid_at,omitempty"`
	PaidFromAccountID    *uuid.UUID            `json:"paid_from_account_id,omitempty"`
	PaymentTransactionID *uuid.UUID            `json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	Version              int                   `json:"version"`
}

// ToInvoiceResponse converts a domain Invoice to its response DTO
func ToInvoiceResponse(inv *finance.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: common.FormatAmount(l.UnitPrice),
			Amount:    common.FormatAmount(l.Amount),
		}
	}
	return InvoiceResponse{
		ID:                   inv.ID,
		InvoiceNumber:        inv.InvoiceNumber,
		SourceOrderID:        inv.SourceOrderID,
		SourceOrderType:      string(inv.SourceOrderType),
		Lines:                lines,
		Subtotal:             common.FormatAmount(inv.Subtotal),
		Tax:                  common.FormatAmount(inv.Tax),
		Total:                common.FormatAmount(inv.Total),
		Status:               string(inv.Status),
		Overdue:              inv.IsOverdue(time.Now()),
		DueDate:              inv.DueDate,
		PaidAt:               inv.PaidAt,
		PaidFromAccountID:    inv.PaidFromAccountID,
		PaymentTransactionID: inv.PaymentTransactionID,
		CreatedAt:            inv.CreatedAt,
		Version:              inv.Version,
	}
}

// ToInvoiceResponses converts a slice of invoices
func ToInvoiceResponses(invoices []finance.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

// PaymentResponse is the result of paying an invoice
type PaymentResponse struct {
	Invoice     InvoiceResponse      `json:"invoice"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Account     BankAccountResponse  `json:"account"`
}

// ==================== Expense DTOs ====================

// RecordExpenseRequest represents a request to record an expense
type RecordExpenseRequest struct {
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	Notes         string          `json:"notes"`
	IncurredAt    *time.Time      `json:"incurred_at"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID            uuid.UUID `json:"id"`
	Category      string    `json:"category"`
	Amount        string    `json:"amount"`
	BankAccountID uuid.UUID `json:"bank_account_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Notes         string    `json:"notes,omitempty"`
	IncurredAt    time.Time `json:"incurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToExpenseResponse converts a domain Expense to its response DTO
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Category:      string(e.Category),
		Amount:        common.FormatAmount(e.Amount),
		BankAccountID: e.BankAccountID,
		TransactionID: e.TransactionID,
		Notes:         e.Notes,
		IncurredAt:    e.IncurredAt,
		CreatedAt:     e.CreatedAt,
	}
}

// ToExpenseResponses converts a slice of expenses
func ToExpenseResponses(expenses []finance.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i])
	}
	return responses
}

// ==================== Dashboard DTOs ====================

// CategoryBreakdown is one category's share of the period's expenses
type CategoryBreakdown struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	Count      int64  `json:"count"`
	Percentage string `json:"percentage"`
}

// ExpensesBreakdownResponse is the expenses-by-category projection
type ExpensesBreakdownResponse struct {
	Period     string              `json:"period"`
	Currency   string              `json:"currency"`
	From       time.Time           `json:"from"`
	To         time.Time           `json:"to"`
	Total      string              `json:"total"`
	Categories []CategoryBreakdown `json:"categories"`
}

// MonthCashFlow is income and expenses of one calendar month
type MonthCashFlow struct {
	Month    string `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

// MonthComparisonResponse compares the current month with the previous one
type MonthComparisonResponse struct {
	Currency      string        `json:"currency"`
	CurrentMonth  MonthCashFlow `json:"current_month"`
	PreviousMonth MonthCashFlow `json:"previous_month"`
	// Change percentages are empty when the previous month had no activity
	IncomeChangePercent   string `json:"income_change_percent,omitempty"`
	ExpensesChangePercent string `json:"expenses_change_percent,omitempty"`
}

// CurrencyBalance is the summed balance of the accounts held in one currency
type CurrencyBalance struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	AccountCount int64  `json:"account_count"`
}

// DashboardSummaryResponse is the headline figures of the dashboard
type DashboardSummaryResponse struct {
	Currency         string `json:"currency"`
	TotalBalance     string `json:"total_balance"`
	BankAccountCount int    `json:"bank_account_count"`
	// Accounts in other currencies, kept out of TotalBalance
	OtherBalances       []CurrencyBalance `json:"other_currency_balances,omitempty"`
	Receivables         string            `json:"receivables"`
	UnpaidSalesCount    int64             `json:"unpaid_sales_invoice_count"`
	Payables            string            `json:"payables"`
	UnpaidPurchaseCount int64             `json:"unpaid_purchase_invoice_count"`
	MonthIncome         string            `json:"month_income"`
	MonthExpenses       string            `json:"month_expenses"`
	LowStockCount       int64             `json:"low_stock_count"`
	GeneratedAt         time.Time         `json:"generated_at"`
}
