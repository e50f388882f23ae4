package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCreditTransactionRepository implements CreditTransactionRepository
// using GORM. The table is insert-only; credit movements are never edited.
type GormCreditTransactionRepository struct {
	db *gorm.DB
}

// NewGormCreditTransactionRepository creates a new GormCreditTransactionRepository
func NewGormCreditTransactionRepository(db *gorm.DB) *GormCreditTransactionRepository {
	return &GormCreditTransactionRepository{db: db}
}

// Save persists a credit transaction
func (r *GormCreditTransactionRepository) Save(ctx context.Context, tx *partner.CreditTransaction) error {
	model := models.CreditTransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByCounterparty returns a counterparty's credit movements, newest
// first, with the total count
func (r *GormCreditTransactionRepository) FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, filter shared.Filter) ([]partner.CreditTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CreditTransactionModel{}).
		Where("counterparty_id = ?", counterpartyID)
	if v, ok := filter.Filters["transaction_type"]; ok {
		query = query.Where("transaction_type = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("transaction_date DESC, created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var txModels []models.CreditTransactionModel
	if err := query.Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	txs := make([]partner.CreditTransaction, len(txModels))
	for i, model := range txModels {
		txs[i] = *model.ToDomain()
	}
	return txs, total, nil
}

// Ensure GormCreditTransactionRepository implements CreditTransactionRepository
var _ partner.CreditTransactionRepository = (*GormCreditTransactionRepository)(nil)
