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

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Save creates or updates a return with its items
func (r *GormReturnRepository) Save(ctx context.Context, ret *ledger.Return) error {
	model := models.ReturnModelFromDomain(ret)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a return by its ID
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Return, error) {
	var model models.ReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDocument returns all returns recorded against a document, oldest
// first. The return validator folds these to compute per-line returned
// quantities.
func (r *GormReturnRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]ledger.Return, error) {
	var returnModels []models.ReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&returnModels).Error; err != nil {
		return nil, err
	}
	returns := make([]ledger.Return, len(returnModels))
	for i, model := range returnModels {
		returns[i] = *model.ToDomain()
	}
	return returns, nil
}

// GenerateReturnNumber generates a unique return number.
// Format: RET-YYYYMMDD-XXXXX
func (r *GormReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("RET-%s-", date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.ReturnModel{}).
		Select("return_number").
		Where("return_number LIKE ?", prefix+"%").
		Order("return_number DESC").
		Limit(1).
		Pluck("return_number", &maxNumber).Error; err != nil {
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

// Ensure GormReturnRepository implements ReturnRepository
var _ ledger.ReturnRepository = (*GormReturnRepository)(nil)
