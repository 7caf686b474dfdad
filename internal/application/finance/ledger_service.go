package finance

import (
	"context"
	"strings"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/domain/shared/valueobject"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerConfig holds the ledger policies
type LedgerConfig struct {
	BaseCurrency valueobject.Currency
	Overdraft    finance.OverdraftPolicy
	Retry        common.RetryConfig
}

// DefaultLedgerConfig returns EGP, no overdraft and the default retry policy
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		BaseCurrency: valueobject.DefaultCurrency,
		Retry:        common.DefaultRetryConfig(),
	}
}

// LedgerService owns bank account balances and the transaction log.
// Every balance change goes through PostWithin, which appends the
// transaction and saves the account in the caller's unit of work.
type LedgerService struct {
	txScope         common.TransactionScope
	accountRepo     finance.BankAccountRepository
	transactionRepo finance.TransactionRepository
	authorizer      shared.Authorizer
	cfg             LedgerConfig
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope common.TransactionScope,
	accountRepo finance.BankAccountRepository,
	transactionRepo finance.TransactionRepository,
	authorizer shared.Authorizer,
	cfg LedgerConfig,
) *LedgerService {
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = valueobject.DefaultCurrency
	}
	return &LedgerService{
		txScope:         txScope,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		authorizer:      authorizer,
		cfg:             cfg,
		logger:          zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *LedgerService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLogger sets the logger
func (s *LedgerService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// OverdraftPolicy returns the configured overdraft policy
func (s *LedgerService) OverdraftPolicy() finance.OverdraftPolicy {
	return s.cfg.Overdraft
}

// PostWithin locks the account, applies the posting and appends the
// transaction using repos of the caller's transaction. The account's events
// go to collector.
func (s *LedgerService) PostWithin(
	ctx context.Context,
	repos common.TransactionalRepositories,
	collector *common.EventCollector,
	accountID uuid.UUID,
	direction finance.Direction,
	amount decimal.Decimal,
	cause finance.Cause,
	notes string,
) (*finance.Transaction, *finance.BankAccount, error) {
	account, err := repos.BankAccountRepo().FindByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	money, err := valueobject.NewMoney(amount, account.Currency)
	if err != nil {
		return nil, nil, err
	}

	tx, err := account.Post(direction, money, cause, notes, s.cfg.Overdraft)
	if err != nil {
		return nil, nil, err
	}

	if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
		return nil, nil, err
	}
	if err := repos.BankAccountRepo().SaveWithLock(ctx, account); err != nil {
		return nil, nil, err
	}

	collector.Collect(account)
	return tx, account, nil
}

// RecordPosted records metrics for committed transactions
func (s *LedgerService) RecordPosted(ctx context.Context, txs ...*finance.Transaction) {
	if s.businessMetrics == nil {
		return
	}
	for _, tx := range txs {
		if tx != nil {
			s.businessMetrics.RecordLedgerPosting(ctx, string(tx.Direction), string(tx.CauseType))
		}
	}
}

// OpenAccount creates a bank account. A positive opening balance is posted as
// an adjustment credit so the balance is backed by the transaction log from
// the start.
func (s *LedgerService) OpenAccount(ctx context.Context, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapBankAccountCreate); err != nil {
		return nil, err
	}
	if req.OpeningBalance.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Opening balance cannot be negative")
	}

	currency := valueobject.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if currency == "" {
		currency = s.cfg.BaseCurrency
	}
	account, err := finance.NewBankAccount(req.Name, currency)
	if err != nil {
		return nil, err
	}

	var opening *finance.Transaction
	if req.OpeningBalance.IsPositive() {
		money, err := valueobject.NewMoney(req.OpeningBalance, account.Currency)
		if err != nil {
			return nil, err
		}
		opening, err = account.Credit(money, finance.AdjustmentCause(account.ID), "Opening balance")
		if err != nil {
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		if err := repos.BankAccountRepo().Create(ctx, account); err != nil {
			return err
		}
		if opening != nil {
			return repos.TransactionRepo().Create(ctx, opening)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var collector common.EventCollector
	collector.Collect(account)
	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())
	s.RecordPosted(ctx, opening)

	s.logger.Info("Bank account opened",
		zap.String("account_id", account.ID.String()),
		zap.String("currency", string(account.Currency)),
		zap.String("opening_balance", common.FormatAmount(account.Balance)),
	)

	response := ToBankAccountResponse(account)
	return &response, nil
}

// Credit appends an incoming transaction and raises the balance
func (s *LedgerService) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, cause finance.Cause, notes string) (*PostingResponse, error) {
	return s.post(ctx, accountID, finance.DirectionIn, amount, cause, notes)
}

// Debit appends an outgoing transaction and lowers the balance. It fails with
// ErrInsufficientFunds when the balance does not cover the amount and
// overdrafts are disabled.
func (s *LedgerService) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, cause finance.Cause, notes string) (*PostingResponse, error) {
	return s.post(ctx, accountID, finance.DirectionOut, amount, cause, notes)
}

func (s *LedgerService) post(
	ctx context.Context,
	accountID uuid.UUID,
	direction finance.Direction,
	amount decimal.Decimal,
	cause finance.Cause,
	notes string,
) (*PostingResponse, error) {
	if err := common.Authorize(ctx, s.authorizer, shared.CapLedgerAdjust); err != nil {
		return nil, err
	}

	var (
		collector common.EventCollector
		tx        *finance.Transaction
		account   *finance.BankAccount
	)
	err := common.RetryOnConflict(ctx, s.cfg.Retry, func(attempt int) error {
		collector.Reset()
		if attempt > 0 && s.businessMetrics != nil {
			s.businessMetrics.RecordConflictRetry(ctx, "ledger_post")
		}
		return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			var err error
			tx, account, err = s.PostWithin(ctx, repos, &collector, accountID, direction, amount, cause, notes)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())
	s.RecordPosted(ctx, tx)

	return &PostingResponse{
		Account:     ToBankAccountResponse(account),
		Transaction: ToTransactionResponse(tx),
	}, nil
}

// GetBankAccounts lists all bank accounts with their balances
func (s *LedgerService) GetBankAccounts(ctx context.Context) ([]BankAccountResponse, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToBankAccountResponses(accounts), nil
}

// GetBankAccount retrieves a bank account by ID
func (s *LedgerService) GetBankAccount(ctx context.Context, accountID uuid.UUID) (*BankAccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	response := ToBankAccountResponse(account)
	return &response, nil
}

// ListTransactions lists an account's transaction log, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, accountID uuid.UUID, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	if _, err := s.accountRepo.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := s.transactionRepo.FindByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.transactionRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToTransactionResponses(txs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Reconcile recomputes the signed sum of the account's transactions and
// compares it with the cached balance. The account row is locked while
// reading so no posting can land between the two reads. On mismatch the
// report is returned together with ErrLedgerDrift.
func (s *LedgerService) Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconciliationResponse, error) {
	var (
		account *finance.BankAccount
		logSum  decimal.Decimal
		count   int64
	)
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		account, err = repos.BankAccountRepo().FindByIDForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		logSum, err = repos.TransactionRepo().SumSignedByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		count, err = repos.TransactionRepo().CountByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}

	driftErr := account.Reconcile(logSum)
	report := &ReconciliationResponse{
		AccountID:        account.ID,
		Balance:          common.FormatAmount(account.Balance),
		LogSum:           common.FormatAmount(logSum),
		Difference:       common.FormatAmount(account.Balance.Sub(logSum)),
		TransactionCount: count,
		Consistent:       driftErr == nil,
		CheckedAt:        time.Now(),
	}
	if driftErr != nil {
		s.logger.Error("Ledger drift detected",
			zap.String("account_id", account.ID.String()),
			zap.String("balance", report.Balance),
			zap.String("log_sum", report.LogSum),
		)
		return report, driftErr
	}
	return report, nil
}
