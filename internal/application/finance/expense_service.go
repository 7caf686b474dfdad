package finance

import (
	"context"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"go.uber.org/zap"
)

// ExpenseService records expenses as ledger debits
type ExpenseService struct {
	txScope        common.TransactionScope
	expenseRepo    finance.ExpenseRepository
	ledger         *LedgerService
	authorizer     shared.Authorizer
	retry          common.RetryConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	txScope common.TransactionScope,
	expenseRepo finance.ExpenseRepository,
	ledger *LedgerService,
	authorizer shared.Authorizer,
	retry common.RetryConfig,
) *ExpenseService {
	return &ExpenseService{
		txScope:     txScope,
		expenseRepo: expenseRepo,
		ledger:      ledger,
		authorizer:  authorizer,
		retry:       retry,
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ExpenseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger
func (s *ExpenseService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RecordExpense debits the account with an expense cause and stores the
// expense, in one transaction.
func (s *ExpenseService) RecordExpense(ctx context.Context, req RecordExpenseRequest) (*ExpenseResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapExpenseCreate); err != nil {
		return nil, err
	}

	incurredAt := time.Now()
	if req.IncurredAt != nil {
		incurredAt = *req.IncurredAt
	}
	expense, err := finance.NewExpense(finance.ExpenseCategory(req.Category), req.Amount, req.BankAccountID, req.Notes, incurredAt)
	if err != nil {
		return nil, err
	}

	var (
		collector common.EventCollector
		tx        *finance.Transaction
	)
	err = common.RetryOnConflict(ctx, s.retry, func(int) error {
		collector.Reset()
		return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			var err error
			tx, _, err = s.ledger.PostWithin(ctx, repos, &collector,
				expense.BankAccountID, finance.DirectionOut, expense.Amount, finance.ExpenseCause(expense.ID), expense.Notes)
			if err != nil {
				return err
			}
			expense.TransactionID = tx.ID
			return repos.ExpenseRepo().Create(ctx, expense)
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())
	s.ledger.RecordPosted(ctx, tx)

	response := ToExpenseResponse(expense)
	return &response, nil
}

// ListExpenses lists recorded expenses, newest first
func (s *ExpenseService) ListExpenses(ctx context.Context, filter shared.Filter) ([]ExpenseResponse, error) {
	expenses, err := s.expenseRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToExpenseResponses(expenses), nil
}
