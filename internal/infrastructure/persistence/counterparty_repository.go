package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterpartySortFields contains allowed sort fields for counterparties
var CounterpartySortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"code":           true,
	"name":           true,
	"type":           true,
	"credit_balance": true,
}

// GormCounterpartyRepository implements CounterpartyRepository using GORM
type GormCounterpartyRepository struct {
	db *gorm.DB
}

// NewGormCounterpartyRepository creates a new GormCounterpartyRepository
func NewGormCounterpartyRepository(db *gorm.DB) *GormCounterpartyRepository {
	return &GormCounterpartyRepository{db: db}
}

// FindByID finds a counterparty by its ID
func (r *GormCounterpartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Counterparty, error) {
	var model models.CounterpartyModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a counterparty and takes a row lock on it.
// Used when granting or consuming advance credit inside a transaction.
func (r *GormCounterpartyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Counterparty, error) {
	var model models.CounterpartyModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns counterparties matching the filter with the total count
func (r *GormCounterpartyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Counterparty, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CounterpartyModel{})
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ? OR phone LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	if v, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CounterpartySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var counterpartyModels []models.CounterpartyModel
	if err := query.Find(&counterpartyModels).Error; err != nil {
		return nil, 0, err
	}
	counterparties := make([]partner.Counterparty, len(counterpartyModels))
	for i, model := range counterpartyModels {
		counterparties[i] = *model.ToDomain()
	}
	return counterparties, total, nil
}

// Save creates or updates a counterparty
func (r *GormCounterpartyRepository) Save(ctx context.Context, cp *partner.Counterparty) error {
	model := models.CounterpartyModelFromDomain(cp)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormCounterpartyRepository) SaveWithLock(ctx context.Context, cp *partner.Counterparty) error {
	cp.IncrementVersion()
	model := models.CounterpartyModelFromDomain(cp)
	result := r.db.WithContext(ctx).
		Model(&models.CounterpartyModel{}).
		Where("id = ? AND version = ?", cp.ID, cp.Version-1).
		Updates(map[string]any{
			"credit_balance": model.CreditBalance,
			"phone":          model.Phone,
			"address":        model.Address,
			"version":        model.Version,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormCounterpartyRepository implements CounterpartyRepository
var _ partner.CounterpartyRepository = (*GormCounterpartyRepository)(nil)
