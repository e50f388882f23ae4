package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
)

// DocumentRepository provides access to documents
type DocumentRepository interface {
	// FindByID finds a document by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindByIDForUpdate finds a document and takes a row lock on it.
	// Only meaningful inside a transactional scope; the lock serializes
	// concurrent balance-read-then-append sequences on the same document.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindOutstandingByCounterparty returns open and partial documents
	// ordered oldest-first (created_at, then id)
	FindOutstandingByCounterparty(ctx context.Context, counterpartyID uuid.UUID) ([]Document, error)
	// FindOutstandingByCounterpartyForUpdate is the same query with row
	// locks taken, for the FIFO allocation pass inside a transactional scope
	FindOutstandingByCounterpartyForUpdate(ctx context.Context, counterpartyID uuid.UUID) ([]Document, error)
	// FindAll returns documents matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Document, int64, error)
	// Save persists a new document
	Save(ctx context.Context, doc *Document) error
	// SaveWithLock persists an existing document with optimistic locking
	SaveWithLock(ctx context.Context, doc *Document) error
	// Delete removes a document; callers must first check CanDelete
	Delete(ctx context.Context, id uuid.UUID) error
	// GenerateDocumentNumber generates the next document number
	GenerateDocumentNumber(ctx context.Context, docType DocumentType) (string, error)
}

// LedgerEntryRepository is the append-only ledger store
type LedgerEntryRepository interface {
	// Append durably persists an entry, assigning the next per-document
	// sequence number. Entries are never updated or deleted.
	Append(ctx context.Context, entry *LedgerEntry) error
	// FindByDocument returns all entries for a document in append order
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]LedgerEntry, error)
	// CountByDocument counts entries referencing a document
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// PaymentRepository provides access to payment records
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, filter shared.Filter) ([]Payment, int64, error)
	GeneratePaymentNumber(ctx context.Context) (string, error)
}

// ReturnRepository provides access to return records
type ReturnRepository interface {
	Save(ctx context.Context, ret *Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)
	// FindByDocument returns all returns against a document; used to fold
	// previously returned quantities per line
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Return, error)
	GenerateReturnNumber(ctx context.Context) (string, error)
}

// AuditTrailRepository appends audit notes
type AuditTrailRepository interface {
	Append(ctx context.Context, note *AuditNote) error
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]AuditNote, error)
}
