package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save creates or updates a payment with its allocations
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCounterparty returns a counterparty's payments with the total count
func (r *GormPaymentRepository) FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, filter shared.Filter) ([]ledger.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("counterparty_id = ?", counterpartyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var paymentModels []models.PaymentModel
	if err := query.
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&paymentModels).Error; err != nil {
		return nil, 0, err
	}
	payments := make([]ledger.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, total, nil
}

// GeneratePaymentNumber generates a unique payment number.
// Format: PAY-YYYYMMDD-XXXXX
func (r *GormPaymentRepository) GeneratePaymentNumber(ctx context.Context) (string, error) {
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("PAY-%s-", date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("payment_number").
		Where("payment_number LIKE ?", prefix+"%").
		Order("payment_number DESC").
		Limit(1).
		Pluck("payment_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
