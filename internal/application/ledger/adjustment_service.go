package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordAdjustmentInput carries one explicit correction entry
type RecordAdjustmentInput struct {
	DocumentID   uuid.UUID
	SignedAmount decimal.Decimal // positive re-opens, negative credits
	Memo         string
	Actor        string
}

// AdjustmentResult reports the balance after an adjustment
type AdjustmentResult struct {
	EntryID    uuid.UUID                 `json:"entry_id"`
	NewBalance *ledger.BalanceProjection `json:"new_balance"`
}

// AdjustmentService records explicit adjustment entries: the only
// correction mechanism. History is never rewritten; an over-credited
// return is undone by a positive adjustment that can move a settled
// document back to partial.
type AdjustmentService struct {
	scope  TransactionScope
	events shared.EventPublisher
	logger *zap.Logger
}

// NewAdjustmentService creates a new adjustment service
func NewAdjustmentService(scope TransactionScope, events shared.EventPublisher, logger *zap.Logger) *AdjustmentService {
	return &AdjustmentService{
		scope:  scope,
		events: events,
		logger: logger,
	}
}

// RecordAdjustment appends one signed adjustment entry atomically
func (s *AdjustmentService) RecordAdjustment(ctx context.Context, input RecordAdjustmentInput) (*AdjustmentResult, error) {
	if input.SignedAmount.IsZero() {
		return nil, ledger.NewInvalidAmountError("Adjustment amount cannot be zero")
	}
	if input.Memo == "" {
		return nil, shared.NewDomainError("MEMO_REQUIRED", "Adjustments require an explanatory memo")
	}

	var (
		result  *AdjustmentResult
		pending []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := lockDocument(ctx, repos, input.DocumentID)
		if err != nil {
			return err
		}

		entry, err := ledger.NewLedgerEntry(doc.ID, ledger.EntryKindAdjustment, input.SignedAmount,
			ledger.ManualReference(), input.Actor)
		if err != nil {
			return err
		}
		entry.WithMemo(input.Memo)
		if err := repos.Entries().Append(ctx, entry); err != nil {
			return err
		}

		entries, err := repos.Entries().FindByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		projection := ledger.ProjectBalance(doc.ID, doc.TotalAmount, entries)
		doc.ApplyProjection(projection)
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return err
		}

		note := ledger.NewAuditNote("record_adjustment", input.Actor,
			fmt.Sprintf("Adjustment of %s on document %s: %s",
				input.SignedAmount.StringFixed(2), doc.DocumentNumber, input.Memo)).
			ForDocument(doc.ID)
		if err := repos.AuditTrail().Append(ctx, note); err != nil {
			return err
		}

		pending = append(pending, drainEvents(doc)...)
		result = &AdjustmentResult{EntryID: entry.ID, NewBalance: projection}
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
	s.logger.Info("adjustment recorded",
		zap.String("document_id", input.DocumentID.String()),
		zap.String("amount", input.SignedAmount.String()),
	)
	return result, nil
}
