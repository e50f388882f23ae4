package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// The table is insert-only: no update or delete methods exist, corrections
// are appended as new entries.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append durably persists an entry, assigning the next per-document
// sequence number. Callers hold the document row lock, so the max-sequence
// read cannot race with another append to the same document.
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *ledger.LedgerEntry) error {
	var maxSeq int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("document_id = ?", entry.DocumentID).
		Scan(&maxSeq).Error; err != nil {
		return err
	}
	entry.Sequence = maxSeq + 1

	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByDocument returns all entries for a document in append order
func (r *GormLedgerEntryRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]ledger.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sequence ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// CountByDocument counts entries referencing a document
func (r *GormLedgerEntryRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("document_id = ?", documentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ ledger.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
