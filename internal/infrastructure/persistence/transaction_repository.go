package persistence

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements the append-only TransactionRepository.
// It exposes no update or delete.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a transaction to the log
func (r *GormTransactionRepository) Create(ctx context.Context, tx *finance.Transaction) error {
	return r.db.WithContext(ctx).Create(models.TransactionModelFromDomain(tx)).Error
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindByAccount lists an account's transactions, newest first
func (r *GormTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]finance.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.db.WithContext(ctx).Where("bank_account_id = ?", accountID)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Order("date DESC, created_at DESC").Find(&txModels).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(txModels), nil
}

// CountByAccount counts an account's transactions
func (r *GormTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("bank_account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

// SumSignedByAccount returns Σ(in) − Σ(out) over the account's whole log
func (r *GormTransactionRepository) SumSignedByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("SUM(CASE WHEN direction = ? THEN amount ELSE -amount END) AS total", finance.DirectionIn).
		Where("bank_account_id = ?", accountID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !result.Total.Valid {
		return decimal.Zero, nil
	}
	return result.Total.Decimal, nil
}

// FindByCause lists transactions posted for a cause entity
func (r *GormTransactionRepository) FindByCause(ctx context.Context, cause finance.Cause) ([]finance.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("cause_type = ? AND cause_id = ?", cause.Type, cause.ID).
		Order("created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(txModels), nil
}

func transactionsToDomain(txModels []models.TransactionModel) []finance.Transaction {
	txs := make([]finance.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = *txModels[i].ToDomain()
	}
	return txs
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)
