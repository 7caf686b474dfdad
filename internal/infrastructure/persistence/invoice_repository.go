package persistence

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrInvoiceNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an invoice by ID and locks its row
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrInvoiceNotFound)
	}
	return model.ToDomain(), nil
}

// FindBySourceOrder finds the invoice generated for an order
func (r *GormInvoiceRepository) FindBySourceOrder(ctx context.Context, orderType finance.SourceOrderType, orderID uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("source_order_type = ? AND source_order_id = ?", orderType, orderID).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrInvoiceNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)
	query = paginate(query, filter, invoiceSort)
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter).Count(&count).Error
	return count, err
}

// Create inserts a new invoice. A second invoice for the same order violates
// the unique index and surfaces as ErrDuplicateInvoice.
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	if err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrDuplicateInvoice.Errorf(
				"An invoice already exists for %s order %s", invoice.SourceOrderType, invoice.SourceOrderID)
		}
		return err
	}
	return nil
}

// SaveWithLock saves the payment state with optimistic locking
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version).
		Updates(map[string]any{
			"status":                 invoice.Status,
			"paid_at":                invoice.PaidAt,
			"paid_from_account_id":   invoice.PaidFromAccountID,
			"payment_transaction_id": invoice.PaymentTransactionID,
			"version":                invoice.Version + 1,
			"updated_at":             invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return versionConflict("Invoice")
	}
	invoice.IncrementVersion()
	return nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source_order_type":
			query = query.Where("source_order_type = ?", value)
		case "source_order_id":
			query = query.Where("source_order_id = ?", value)
		}
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
