package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditTrailRepository implements AuditTrailRepository using GORM.
// Notes are insert-only and written in the same transaction as the ledger
// mutation they describe.
type GormAuditTrailRepository struct {
	db *gorm.DB
}

// NewGormAuditTrailRepository creates a new GormAuditTrailRepository
func NewGormAuditTrailRepository(db *gorm.DB) *GormAuditTrailRepository {
	return &GormAuditTrailRepository{db: db}
}

// Append persists an audit note
func (r *GormAuditTrailRepository) Append(ctx context.Context, note *ledger.AuditNote) error {
	model := models.AuditNoteModelFromDomain(note)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByDocument returns the audit notes recorded against a document,
// oldest first
func (r *GormAuditTrailRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]ledger.AuditNote, error) {
	var noteModels []models.AuditNoteModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]ledger.AuditNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// Ensure GormAuditTrailRepository implements AuditTrailRepository
var _ ledger.AuditTrailRepository = (*GormAuditTrailRepository)(nil)
