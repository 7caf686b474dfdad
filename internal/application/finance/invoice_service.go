package finance

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger-engine/internal/application/common"
	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceConfig holds invoicing policy
type InvoiceConfig struct {
	TaxPolicy    finance.TaxPolicy
	PaymentTerms time.Duration
	Retry        common.RetryConfig
}

// DefaultInvoiceConfig returns a zero tax rate and 30 day payment terms
func DefaultInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		PaymentTerms: 30 * 24 * time.Hour,
		Retry:        common.DefaultRetryConfig(),
	}
}

// InvoiceService derives invoices from billable order events and settles
// them against the ledger.
type InvoiceService struct {
	txScope         common.TransactionScope
	invoiceRepo     finance.InvoiceRepository
	ledger          *LedgerService
	numbers         common.NumberGenerator
	authorizer      shared.Authorizer
	cfg             InvoiceConfig
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	txScope common.TransactionScope,
	invoiceRepo finance.InvoiceRepository,
	ledger *LedgerService,
	numbers common.NumberGenerator,
	authorizer shared.Authorizer,
	cfg InvoiceConfig,
) *InvoiceService {
	return &InvoiceService{
		txScope:     txScope,
		invoiceRepo: invoiceRepo,
		ledger:      ledger,
		numbers:     numbers,
		authorizer:  authorizer,
		cfg:         cfg,
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLogger sets the logger
func (s *InvoiceService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GenerateInvoice creates the invoice for a billable order event inside the
// caller's transaction. It fails with ErrDuplicateInvoice when the order has
// already been invoiced. The new invoice's events are left on the aggregate
// for the caller to collect.
func (s *InvoiceService) GenerateInvoice(
	ctx context.Context,
	repos common.TransactionalRepositories,
	orderType finance.SourceOrderType,
	orderID uuid.UUID,
	lines []finance.InvoiceLine,
) (*finance.Invoice, error) {
	existing, err := repos.InvoiceRepo().FindBySourceOrder(ctx, orderType, orderID)
	switch {
	case err == nil:
		return nil, shared.ErrDuplicateInvoice.Errorf(
			"Invoice %s already exists for %s order %s", existing.InvoiceNumber, orderType, orderID)
	case !errors.Is(err, shared.ErrInvoiceNotFound):
		return nil, err
	}

	invoice, err := finance.NewInvoice(
		s.numbers.Next(common.PrefixInvoice),
		orderType,
		orderID,
		lines,
		s.cfg.TaxPolicy,
		time.Now().Add(s.cfg.PaymentTerms),
	)
	if err != nil {
		return nil, err
	}
	if err := repos.InvoiceRepo().Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// PayInvoice settles an invoice from a bank account as one unit of work:
// lock the invoice, lock the account, append the transaction (in for sales,
// out for purchases), update the balance and mark the invoice paid.
func (s *InvoiceService) PayInvoice(ctx context.Context, invoiceID uuid.UUID, req PayInvoiceRequest) (_ *PaymentResponse, err error) {
	ctx, span := telemetry.StartOperationSpan(ctx, "invoice", "pay_invoice",
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAccountID, req.BankAccountID.String(),
	)
	start := time.Now()
	defer func() {
		telemetry.EndSpan(span, err)
		if s.businessMetrics != nil {
			s.businessMetrics.RecordOperation(ctx, "pay_invoice", time.Since(start), err)
		}
	}()

	if err := common.Authorize(ctx, s.authorizer, shared.CapInvoicePay); err != nil {
		return nil, err
	}
	if req.BankAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank account ID cannot be empty")
	}

	var (
		collector common.EventCollector
		invoice   *finance.Invoice
		tx        *finance.Transaction
		account   *finance.BankAccount
	)
	err = common.RetryOnConflict(ctx, s.cfg.Retry, func(attempt int) error {
		collector.Reset()
		if attempt > 0 {
			telemetry.AddEvent(ctx, "conflict_retry", telemetry.SpanAttrAttempt, attempt)
			if s.businessMetrics != nil {
				s.businessMetrics.RecordConflictRetry(ctx, "pay_invoice")
			}
		}
		return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if inv.IsPaid() {
				return shared.ErrAlreadyPaid.Errorf("Invoice %s is already paid", inv.InvoiceNumber)
			}

			var posted *finance.Transaction
			var acct *finance.BankAccount
			if inv.Total.IsZero() {
				acct, err = repos.BankAccountRepo().FindByIDForUpdate(ctx, req.BankAccountID)
			} else {
				posted, acct, err = s.ledger.PostWithin(ctx, repos, &collector,
					req.BankAccountID, inv.PaymentDirection(), inv.Total, finance.InvoiceCause(inv.ID), req.Notes)
			}
			if err != nil {
				return err
			}

			if err := inv.MarkPaid(acct.ID, posted); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
				return err
			}
			collector.Collect(inv)

			invoice, tx, account = inv, posted, acct
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAfterCommit(ctx, s.eventPublisher, s.logger, collector.Events())
	s.ledger.RecordPosted(ctx, tx)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoicePaid(ctx, telemetry.OrderType(invoice.SourceOrderType), invoice.Total)
	}

	s.logger.Info("Invoice paid",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("account_id", account.ID.String()),
		zap.String("amount", common.FormatAmount(invoice.Total)),
	)

	response := &PaymentResponse{
		Invoice: ToInvoiceResponse(invoice),
		Account: ToBankAccountResponse(account),
	}
	if tx != nil {
		txResponse := ToTransactionResponse(tx)
		response.Transaction = &txResponse
	}
	return response, nil
}

// GetInvoice retrieves an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetInvoiceForOrder retrieves the invoice generated for an order
func (s *InvoiceService) GetInvoiceForOrder(ctx context.Context, orderType finance.SourceOrderType, orderID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindBySourceOrder(ctx, orderType, orderID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ListInvoices lists invoices; supported filters are "status" and "source_order_type"
func (s *InvoiceService) ListInvoices(ctx context.Context, filter shared.Filter) (*shared.Paginated[InvoiceResponse], error) {
	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToInvoiceResponses(invoices), total, filter.Page, filter.PageSize)
	return &page, nil
}

// RecordGenerated records metrics for invoices generated by a committed transition
func (s *InvoiceService) RecordGenerated(ctx context.Context, invoice *finance.Invoice) {
	if s.businessMetrics == nil || invoice == nil {
		return
	}
	s.businessMetrics.RecordInvoiceGenerated(ctx, telemetry.OrderType(invoice.SourceOrderType))
}
