package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BalanceService is the Balance Reconciler's read surface: balance
// projections, ledger history and open-document listings. Reads never
// mutate ledger state; the projection is recomputed from the entries on
// every cache miss.
type BalanceService struct {
	documents ledger.DocumentRepository
	entries   ledger.LedgerEntryRepository
	audit     ledger.AuditTrailRepository
	cache     BalanceCache
	logger    *zap.Logger
}

// NewBalanceService creates a new balance service
func NewBalanceService(
	documents ledger.DocumentRepository,
	entries ledger.LedgerEntryRepository,
	audit ledger.AuditTrailRepository,
	cache BalanceCache,
	logger *zap.Logger,
) *BalanceService {
	if cache == nil {
		cache = NewNoOpBalanceCache()
	}
	return &BalanceService{
		documents: documents,
		entries:   entries,
		audit:     audit,
		cache:     cache,
		logger:    logger,
	}
}

// BalanceOf returns the balance projection of a document. Calling it
// twice with no intervening writes yields identical results.
func (s *BalanceService) BalanceOf(ctx context.Context, documentID uuid.UUID) (*ledger.BalanceProjection, error) {
	if cached, hit, err := s.cache.Get(ctx, documentID); err != nil {
		s.logger.Warn("balance cache read failed", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.NewDocumentNotFoundError(documentID)
		}
		return nil, err
	}
	entries, err := s.entries.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	projection := ledger.ProjectBalance(doc.ID, doc.TotalAmount, entries)
	if err := s.cache.Set(ctx, projection); err != nil {
		s.logger.Warn("balance cache write failed", zap.Error(err))
	}
	return projection, nil
}

// LedgerHistory returns all entries of a document in append order
func (s *BalanceService) LedgerHistory(ctx context.Context, documentID uuid.UUID) ([]ledger.LedgerEntry, error) {
	if _, err := s.documents.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.NewDocumentNotFoundError(documentID)
		}
		return nil, err
	}
	return s.entries.FindByDocument(ctx, documentID)
}

// ListOpenDocuments returns the counterparty's open and partial documents
// oldest-first, the same order the FIFO allocator walks
func (s *BalanceService) ListOpenDocuments(ctx context.Context, counterpartyID uuid.UUID) ([]ledger.Document, error) {
	return s.documents.FindOutstandingByCounterparty(ctx, counterpartyID)
}

// AuditTrail returns the audit notes recorded against a document
func (s *BalanceService) AuditTrail(ctx context.Context, documentID uuid.UUID) ([]ledger.AuditNote, error) {
	if _, err := s.documents.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.NewDocumentNotFoundError(documentID)
		}
		return nil, err
	}
	return s.audit.FindByDocument(ctx, documentID)
}
