package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnItemInput is one requested return line
type ReturnItemInput struct {
	OriginalLineID   uuid.UUID
	ReturnedQuantity decimal.Decimal
}

// ProcessReturnInput carries one return request
type ProcessReturnInput struct {
	DocumentID     uuid.UUID
	Items          []ReturnItemInput
	SettlementType ledger.SettlementType
	Actor          string
}

// ReturnResult reports a processed return
type ReturnResult struct {
	ReturnID     uuid.UUID                 `json:"return_id"`
	ReturnNumber string                    `json:"return_number"`
	CreditAmount decimal.Decimal           `json:"credit_amount"`
	NewBalance   *ledger.BalanceProjection `json:"new_balance"`
}

// ReturnService is the Return Processor. It validates returned quantities
// against the original lines minus prior returns, computes the credit
// value and feeds one negative return_credit entry, all inside one atomic
// scope.
type ReturnService struct {
	scope  TransactionScope
	events shared.EventPublisher
	logger *zap.Logger
}

// NewReturnService creates a new return service
func NewReturnService(scope TransactionScope, events shared.EventPublisher, logger *zap.Logger) *ReturnService {
	return &ReturnService{
		scope:  scope,
		events: events,
		logger: logger,
	}
}

// ProcessReturn validates and credits one return atomically
func (s *ReturnService) ProcessReturn(ctx context.Context, input ProcessReturnInput) (*ReturnResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "process",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, input.DocumentID.String()),
	)
	defer span.End()

	if len(input.Items) == 0 {
		return nil, ledger.ErrEmptyReturn
	}
	if !input.SettlementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT_TYPE", "Settlement type must be credit or refund")
	}

	var (
		result  *ReturnResult
		pending []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := lockDocument(ctx, repos, input.DocumentID)
		if err != nil {
			return err
		}

		items, err := s.validateItems(ctx, repos, doc, input.Items)
		if err != nil {
			return err
		}

		number, err := repos.Returns().GenerateReturnNumber(ctx)
		if err != nil {
			return err
		}
		ret, err := ledger.NewReturn(doc.ID, number, items, input.SettlementType, input.Actor)
		if err != nil {
			return err
		}

		// One return_credit entry per return; the item split lives on the
		// return record and the totals reconcile.
		entry, err := ledger.NewLedgerEntry(doc.ID, ledger.EntryKindReturnCredit, ret.CreditAmount.Neg(),
			ledger.ReturnReference(ret.ID), input.Actor)
		if err != nil {
			return err
		}
		entry.WithMemo(fmt.Sprintf("Return %s (%s)", ret.ReturnNumber, ret.SettlementType))
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

		ret.AddDomainEvent(ledger.NewReturnProcessedEvent(ret))
		if err := repos.Returns().Save(ctx, ret); err != nil {
			return err
		}

		note := ledger.NewAuditNote("process_return", input.Actor,
			fmt.Sprintf("Return %s credited %s against document %s (%d item(s), %s settlement)",
				ret.ReturnNumber, ret.CreditAmount.StringFixed(2), doc.DocumentNumber,
				len(ret.Items), ret.SettlementType)).
			ForDocument(doc.ID).
			ForReference(ret.ID)
		if err := repos.AuditTrail().Append(ctx, note); err != nil {
			return err
		}

		pending = append(pending, drainEvents(doc)...)
		pending = append(pending, drainEvents(ret)...)
		result = &ReturnResult{
			ReturnID:     ret.ID,
			ReturnNumber: ret.ReturnNumber,
			CreditAmount: ret.CreditAmount,
			NewBalance:   projection,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrReturnNumber, result.ReturnNumber,
		telemetry.SpanAttrAmount, result.CreditAmount.String(),
	)
	s.publishEvents(ctx, pending)
	s.logger.Info("return processed",
		zap.String("return_number", result.ReturnNumber),
		zap.String("document_id", input.DocumentID.String()),
		zap.String("credit_amount", result.CreditAmount.String()),
	)
	return result, nil
}

// validateItems checks every requested line against the document and the
// fold of prior returns, and prices the items from the original lines
func (s *ReturnService) validateItems(ctx context.Context, repos TransactionalRepositories, doc *ledger.Document, inputs []ReturnItemInput) ([]ledger.ReturnItem, error) {
	priorReturns, err := repos.Returns().FindByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	items := make([]ledger.ReturnItem, 0, len(inputs))
	// Quantities requested earlier in the same return count against the
	// same line's bound.
	requestedSoFar := make(map[uuid.UUID]decimal.Decimal, len(inputs))

	for _, in := range inputs {
		line, ok := doc.LineByID(in.OriginalLineID)
		if !ok {
			return nil, shared.NewDomainError("LINE_NOT_FOUND",
				fmt.Sprintf("Line %s does not exist on document %s", in.OriginalLineID, doc.DocumentNumber))
		}

		alreadyReturned := decimal.Zero
		for _, prior := range priorReturns {
			alreadyReturned = alreadyReturned.Add(prior.QuantityForLine(line.ID))
		}
		alreadyReturned = alreadyReturned.Add(requestedSoFar[line.ID])

		if err := ledger.ValidateReturnable(line.ID, in.ReturnedQuantity, line.Quantity, alreadyReturned); err != nil {
			return nil, err
		}

		item, err := ledger.NewReturnItem(line.ID, in.ReturnedQuantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		requestedSoFar[line.ID] = requestedSoFar[line.ID].Add(in.ReturnedQuantity)
	}
	return items, nil
}

// publishEvents fires events after a successful commit
func (s *ReturnService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}
