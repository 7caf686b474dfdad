package handler

import (
	"errors"

	financeapp "github.com/erp/ledger-engine/internal/application/finance"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/interfaces/http/dto"
	"github.com/erp/ledger-engine/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBankAccountRequest represents a request to open a bank account
type CreateBankAccountRequest struct {
	Name           string          `json:"name" binding:"required,max=100"`
	Currency       string          `json:"currency" binding:"omitempty,iso4217"`
	OpeningBalance decimal.Decimal `json:"opening_balance" binding:"decimal_gte0"`
}

// AdjustBalanceRequest posts a manual credit or debit
type AdjustBalanceRequest struct {
	Direction string          `json:"direction" binding:"required,oneof=in out"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Notes     string          `json:"notes" binding:"required,max=500"`
}

// BankAccountHandler serves bank accounts and their transaction logs
type BankAccountHandler struct {
	BaseHandler
	ledger *financeapp.LedgerService
}

// NewBankAccountHandler creates a new BankAccountHandler
func NewBankAccountHandler(ledger *financeapp.LedgerService) *BankAccountHandler {
	return &BankAccountHandler{ledger: ledger}
}

// Create godoc
// @Summary      Open a bank account
// @Description  A positive opening balance is recorded as an adjustment transaction
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Param        request body CreateBankAccountRequest true "Bank account"
// @Success      201 {object} dto.Response{data=financeapp.BankAccountResponse}
// @Router       /bank-accounts [post]
func (h *BankAccountHandler) Create(c *gin.Context) {
	var req CreateBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.ledger.OpenAccount(c.Request.Context(), financeapp.CreateBankAccountRequest{
		Name:           req.Name,
		Currency:       req.Currency,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// List godoc
// @Summary      List bank accounts with balances
// @Tags         bank-accounts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]financeapp.BankAccountResponse}
// @Router       /bank-accounts [get]
func (h *BankAccountHandler) List(c *gin.Context) {
	accounts, err := h.ledger.GetBankAccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Get retrieves one bank account
func (h *BankAccountHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "account")
	if !ok {
		return
	}
	account, err := h.ledger.GetBankAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Transactions godoc
// @Summary      List an account's transactions
// @Tags         bank-accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Router       /bank-accounts/{id}/transactions [get]
func (h *BankAccountHandler) Transactions(c *gin.Context) {
	id, ok := h.parseID(c, "account")
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.ledger.ListTransactions(c.Request.Context(), id, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Adjust godoc
// @Summary      Post a manual adjustment
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body AdjustBalanceRequest true "Adjustment"
// @Success      201 {object} dto.Response{data=financeapp.PostingResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Insufficient funds"
// @Router       /bank-accounts/{id}/adjustments [post]
func (h *BankAccountHandler) Adjust(c *gin.Context) {
	id, ok := h.parseID(c, "account")
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	post := h.ledger.Credit
	if finance.Direction(req.Direction) == finance.DirectionOut {
		post = h.ledger.Debit
	}
	result, err := post(c.Request.Context(), id, req.Amount, finance.AdjustmentCause(uuid.New()), req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Reconcile godoc
// @Summary      Reconcile an account against its transaction log
// @Description  Returns 409 LEDGER_DRIFT with the report when the balance and the log disagree
// @Tags         bank-accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.ReconciliationResponse}
// @Failure      409 {object} dto.Response{data=financeapp.ReconciliationResponse,error=dto.ErrorInfo}
// @Router       /bank-accounts/{id}/reconcile [get]
func (h *BankAccountHandler) Reconcile(c *gin.Context) {
	id, ok := h.parseID(c, "account")
	if !ok {
		return
	}
	report, err := h.ledger.Reconcile(c.Request.Context(), id)
	if err != nil && report != nil && errors.Is(err, shared.ErrLedgerDrift) {
		resp := dto.NewErrorResponse(shared.ErrLedgerDrift.Code, err.Error(), middleware.GetRequestID(c))
		resp.Data = report
		c.JSON(dto.GetHTTPStatus(shared.ErrLedgerDrift.Code), resp)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
