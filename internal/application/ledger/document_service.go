package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DocumentLineInput is one line of a new document
type DocumentLineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateDocumentInput carries a new invoice or vendor bill
type CreateDocumentInput struct {
	Type           ledger.DocumentType
	CounterpartyID uuid.UUID
	Lines          []DocumentLineInput
	Actor          string
}

// DocumentService manages document lifecycle. Totals are fixed at
// creation; only the ledger changes the effective remaining balance, and
// a document with ledger entries can never be deleted.
type DocumentService struct {
	scope  TransactionScope
	events shared.EventPublisher
	logger *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(scope TransactionScope, events shared.EventPublisher, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		scope:  scope,
		events: events,
		logger: logger,
	}
}

// CreateDocument creates a document with its lines and fixed total
func (s *DocumentService) CreateDocument(ctx context.Context, input CreateDocumentInput) (*ledger.Document, error) {
	lines := make([]ledger.DocumentLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		line, err := ledger.NewDocumentLine(in.Description, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	var (
		doc     *ledger.Document
		pending []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Counterparties().FindByID(ctx, input.CounterpartyID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("COUNTERPARTY_NOT_FOUND", "Counterparty does not exist")
			}
			return err
		}

		number, err := repos.Documents().GenerateDocumentNumber(ctx, input.Type)
		if err != nil {
			return err
		}
		doc, err = ledger.NewDocument(input.Type, input.CounterpartyID, number, lines, input.Actor)
		if err != nil {
			return err
		}
		if err := repos.Documents().Save(ctx, doc); err != nil {
			return err
		}

		note := ledger.NewAuditNote("create_document", input.Actor,
			"Created "+string(doc.Type)+" "+doc.DocumentNumber+" for "+doc.TotalAmount.StringFixed(2)).
			ForDocument(doc.ID)
		if err := repos.AuditTrail().Append(ctx, note); err != nil {
			return err
		}

		pending = append(pending, drainEvents(doc)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil && len(pending) > 0 {
		if err := s.events.Publish(ctx, pending...); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
	s.logger.Info("document created",
		zap.String("document_number", doc.DocumentNumber),
		zap.String("type", doc.Type.String()),
		zap.String("total", doc.TotalAmount.String()),
	)
	return doc, nil
}

// GetDocument returns a document by id
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	var doc *ledger.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return ledger.NewDocumentNotFoundError(id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents matching the filter
func (s *DocumentService) ListDocuments(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Document], error) {
	var page shared.Paginated[ledger.Document]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		docs, total, err := repos.Documents().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(docs, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteDocument removes a document that no ledger entries reference
func (s *DocumentService) DeleteDocument(ctx context.Context, id uuid.UUID, actor string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := lockDocument(ctx, repos, id)
		if err != nil {
			return err
		}
		count, err := repos.Entries().CountByDocument(ctx, id)
		if err != nil {
			return err
		}
		if err := doc.CanDelete(count); err != nil {
			return err
		}
		if err := repos.Documents().Delete(ctx, id); err != nil {
			return err
		}

		note := ledger.NewAuditNote("delete_document", actor,
			"Deleted "+string(doc.Type)+" "+doc.DocumentNumber).
			ForDocument(doc.ID)
		return repos.AuditTrail().Append(ctx, note)
	})
}
