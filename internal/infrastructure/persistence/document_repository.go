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
	"gorm.io/gorm/clause"
)

// DocumentSortFields contains allowed sort fields for documents
var DocumentSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"document_number":   true,
	"type":              true,
	"status":            true,
	"total_amount":      true,
	"remaining_balance": true,
}

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a document and takes a row lock on it. The lock
// serializes concurrent read-balance-then-append sequences on the same
// document; it only has effect inside a transaction.
func (r *GormDocumentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Preload cannot be combined with FOR UPDATE on the parent row, so
	// lines are fetched separately. They are immutable and need no lock.
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstandingByCounterparty returns open and partial documents for a
// counterparty, oldest first. Ties on created_at break by id so the FIFO
// order is deterministic.
func (r *GormDocumentRepository) FindOutstandingByCounterparty(ctx context.Context, counterpartyID uuid.UUID) ([]ledger.Document, error) {
	return r.findOutstanding(ctx, counterpartyID, false)
}

// FindOutstandingByCounterpartyForUpdate is the same query with row locks
// taken, for the FIFO allocation pass inside a transaction.
func (r *GormDocumentRepository) FindOutstandingByCounterpartyForUpdate(ctx context.Context, counterpartyID uuid.UUID) ([]ledger.Document, error) {
	return r.findOutstanding(ctx, counterpartyID, true)
}

func (r *GormDocumentRepository) findOutstanding(ctx context.Context, counterpartyID uuid.UUID, forUpdate bool) ([]ledger.Document, error) {
	query := r.db.WithContext(ctx).
		Where("counterparty_id = ? AND status IN ?", counterpartyID,
			[]ledger.DocumentStatus{ledger.DocumentStatusOpen, ledger.DocumentStatusPartial}).
		Order("created_at ASC, id ASC")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	} else {
		query = query.Preload("Lines")
	}

	var documentModels []models.DocumentModel
	if err := query.Find(&documentModels).Error; err != nil {
		return nil, err
	}
	documents := make([]ledger.Document, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, nil
}

// FindAll returns documents matching the filter along with the total count
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var documentModels []models.DocumentModel
	if err := query.Preload("Lines").Find(&documentModels).Error; err != nil {
		return nil, 0, err
	}
	documents := make([]ledger.Document, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, total, nil
}

// Save creates or updates a document with its lines
func (r *GormDocumentRepository) Save(ctx context.Context, doc *ledger.Document) error {
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The caller must hold a
// version loaded in the same transaction; a zero-row update means another
// writer got there first.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *ledger.Document) error {
	doc.IncrementVersion()
	model := models.DocumentModelFromDomain(doc)
	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version-1).
		Updates(map[string]any{
			"remaining_balance": model.RemainingBalance,
			"status":            model.Status,
			"version":           model.Version,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a document and its lines. Callers must first verify no
// ledger entries reference it.
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.DocumentLineModel{}, "document_id = ?", id).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateDocumentNumber generates the next document number.
// Format: INV-YYYYMMDD-XXXXX for invoices, BILL-YYYYMMDD-XXXXX for vendor bills.
func (r *GormDocumentRepository) GenerateDocumentNumber(ctx context.Context, docType ledger.DocumentType) (string, error) {
	tag := "INV"
	if docType == ledger.DocumentTypeVendorBill {
		tag = "BILL"
	}
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("%s-%s-", tag, date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Select("document_number").
		Where("document_number LIKE ?", prefix+"%").
		Order("document_number DESC").
		Limit(1).
		Pluck("document_number", &maxNumber).Error; err != nil {
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

// applyFilter applies filter options to the query
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("document_number LIKE ?", "%"+filter.Search+"%")
	}
	if v, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["counterparty_id"]; ok {
		query = query.Where("counterparty_id = ?", v)
	}
	return query
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ ledger.DocumentRepository = (*GormDocumentRepository)(nil)
