package persistence

import (
	"context"

	"github.com/erp/ledger-engine/internal/domain/finance"
	"github.com/erp/ledger-engine/internal/domain/shared"
	"github.com/erp/ledger-engine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrAccountNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a bank account by ID and locks its row
func (r *GormBankAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.BankAccount, error) {
	var model models.BankAccountModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrAccountNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll lists all bank accounts ordered by name
func (r *GormBankAccountRepository) FindAll(ctx context.Context) ([]finance.BankAccount, error) {
	var accountModels []models.BankAccountModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]finance.BankAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, nil
}

// Create inserts a new bank account
func (r *GormBankAccountRepository) Create(ctx context.Context, account *finance.BankAccount) error {
	return r.db.WithContext(ctx).Create(models.BankAccountModelFromDomain(account)).Error
}

// SaveWithLock writes the balance if the stored version still matches and
// bumps the version on success
func (r *GormBankAccountRepository) SaveWithLock(ctx context.Context, account *finance.BankAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]any{
			"name":       account.Name,
			"balance":    account.Balance,
			"version":    account.Version + 1,
			"updated_at": account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return versionConflict("Bank account")
	}
	account.IncrementVersion()
	return nil
}

// Ensure GormBankAccountRepository implements BankAccountRepository
var _ finance.BankAccountRepository = (*GormBankAccountRepository)(nil)
