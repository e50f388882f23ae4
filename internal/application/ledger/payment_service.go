package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/ironstore/backend/internal/domain/shared/valueobject"
	"github.com/ironstore/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyPaymentInput carries one incoming payment request
type ApplyPaymentInput struct {
	CounterpartyID   uuid.UUID
	Amount           decimal.Decimal
	DocumentID       *uuid.UUID // targeted mode when set, FIFO otherwise
	Method           ledger.PaymentMethod
	Reference        string
	Actor            string
	AllowOverpayment bool
	UseCredit        bool // fund the payment from the counterparty's advance credit
}

// PaymentResult reports how a payment was applied
type PaymentResult struct {
	PaymentID       uuid.UUID                 `json:"payment_id"`
	PaymentNumber   string                    `json:"payment_number"`
	Allocations     []ledger.Allocation       `json:"allocations"`
	UnappliedAmount decimal.Decimal           `json:"unapplied_amount"`
	NewBalance      *ledger.BalanceProjection `json:"new_balance,omitempty"`
}

// PaymentService is the Payment Allocator. Targeted payments go against
// one document; FIFO payments are distributed across the counterparty's
// outstanding documents oldest-first. Either way the whole pass runs
// inside one atomic scope: a failure on any allocation write rolls back
// the entire payment.
type PaymentService struct {
	scope    TransactionScope
	strategy *ledger.FIFOAllocationStrategy
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(scope TransactionScope, events shared.EventPublisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		scope:    scope,
		strategy: ledger.NewFIFOAllocationStrategy(),
		events:   events,
		logger:   logger,
	}
}

// ApplyPayment validates and applies one payment atomically
func (s *PaymentService) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply",
		telemetry.WithAttribute(telemetry.SpanAttrCounterpartyID, input.CounterpartyID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, input.Amount.String()),
	)
	defer span.End()

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.NewInvalidAmountError("Payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+input.Method.String())
	}

	var (
		result  *PaymentResult
		pending []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Payments().GeneratePaymentNumber(ctx)
		if err != nil {
			return err
		}
		payment, err := ledger.NewPayment(input.CounterpartyID, number, input.Amount, input.Method, input.Reference, input.Actor)
		if err != nil {
			return err
		}

		if input.UseCredit {
			creditEvents, err := consumeAdvanceCredit(ctx, repos, input.CounterpartyID, payment)
			if err != nil {
				return err
			}
			pending = append(pending, creditEvents...)
		}

		var (
			balance     *ledger.BalanceProjection
			allocEvents []shared.DomainEvent
		)
		if input.DocumentID != nil {
			balance, allocEvents, err = s.applyTargeted(ctx, repos, input, payment)
		} else {
			allocEvents, err = s.applyFIFO(ctx, repos, input, payment)
		}
		if err != nil {
			return err
		}
		pending = append(pending, allocEvents...)

		// The single-pass allocation makes this hold by construction;
		// a violation here means the books would not reconcile.
		if !payment.ConservationHolds() {
			return shared.NewDomainError("ALLOCATION_MISMATCH",
				"Allocated and unapplied amounts do not sum to the payment total")
		}

		payment.AddDomainEvent(ledger.NewPaymentRecordedEvent(payment))
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		summary := fmt.Sprintf("Payment %s of %s via %s: %d allocation(s), %s unapplied",
			payment.PaymentNumber, payment.TotalAmount.StringFixed(2), payment.Method,
			len(payment.Allocations), payment.UnappliedAmount.StringFixed(2))
		if input.UseCredit {
			summary += ", funded from advance credit"
		}
		note := ledger.NewAuditNote("apply_payment", input.Actor, summary).
			ForReference(payment.ID)
		if input.DocumentID != nil {
			note.ForDocument(*input.DocumentID)
		}
		if err := repos.AuditTrail().Append(ctx, note); err != nil {
			return err
		}

		pending = append(pending, drainEvents(payment)...)
		result = &PaymentResult{
			PaymentID:       payment.ID,
			PaymentNumber:   payment.PaymentNumber,
			Allocations:     payment.Allocations,
			UnappliedAmount: payment.UnappliedAmount,
			NewBalance:      balance,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentNumber, result.PaymentNumber,
		"allocations", len(result.Allocations),
	)
	s.publish(ctx, pending)
	s.logger.Info("payment applied",
		zap.String("payment_number", result.PaymentNumber),
		zap.String("counterparty_id", input.CounterpartyID.String()),
		zap.String("amount", input.Amount.String()),
		zap.Int("allocations", len(result.Allocations)),
		zap.String("unapplied", result.UnappliedAmount.String()),
	)
	return result, nil
}

// applyTargeted applies the payment against one document. The document
// row is locked before its balance is re-derived, so concurrent payments
// against the same document serialize on the overdraw check.
func (s *PaymentService) applyTargeted(ctx context.Context, repos TransactionalRepositories, input ApplyPaymentInput, payment *ledger.Payment) (*ledger.BalanceProjection, []shared.DomainEvent, error) {
	doc, err := lockDocument(ctx, repos, *input.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.CounterpartyID != input.CounterpartyID {
		return nil, nil, shared.NewDomainError("COUNTERPARTY_MISMATCH",
			fmt.Sprintf("Document %s does not belong to counterparty %s", doc.DocumentNumber, input.CounterpartyID))
	}

	entries, err := repos.Entries().FindByDocument(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	projection := ledger.ProjectBalance(doc.ID, doc.TotalAmount, entries)

	applied := input.Amount
	if input.Amount.GreaterThan(projection.Remaining) {
		if !input.AllowOverpayment {
			return nil, nil, ledger.NewOverpaymentError(doc.DocumentNumber, input.Amount, projection.Remaining)
		}
		applied = projection.Remaining
	}

	var events []shared.DomainEvent
	if applied.IsPositive() {
		entry, err := ledger.NewLedgerEntry(doc.ID, ledger.EntryKindPayment, applied.Neg(),
			ledger.PaymentReference(payment.ID), input.Actor)
		if err != nil {
			return nil, nil, err
		}
		entry.WithMemo(fmt.Sprintf("Payment %s via %s", payment.PaymentNumber, payment.Method))
		if err := repos.Entries().Append(ctx, entry); err != nil {
			return nil, nil, err
		}
		if err := payment.RecordAllocation(doc.ID, doc.DocumentNumber, applied); err != nil {
			return nil, nil, err
		}

		entries = append(entries, *entry)
		projection = ledger.ProjectBalance(doc.ID, doc.TotalAmount, entries)
		doc.ApplyProjection(projection)
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return nil, nil, err
		}
		events = append(events, drainEvents(doc)...)
	}

	if payment.UnappliedAmount.IsPositive() {
		creditEvents, err := grantAdvanceCredit(ctx, repos, input.CounterpartyID, payment)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, creditEvents...)
	}
	return projection, events, nil
}

// applyFIFO distributes the payment across the counterparty's outstanding
// documents in one allocation pass. Balances are re-derived from the
// ledger inside the same scope, never read from the cached column, so two
// rapid payments against the same counterparty cannot double count.
func (s *PaymentService) applyFIFO(ctx context.Context, repos TransactionalRepositories, input ApplyPaymentInput, payment *ledger.Payment) ([]shared.DomainEvent, error) {
	docs, err := repos.Documents().FindOutstandingByCounterpartyForUpdate(ctx, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]*ledger.Document, len(docs))
	entriesByDoc := make(map[uuid.UUID][]ledger.LedgerEntry, len(docs))
	targets := make([]ledger.AllocationTarget, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		entries, err := repos.Entries().FindByDocument(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		projection := ledger.ProjectBalance(doc.ID, doc.TotalAmount, entries)
		if !projection.Remaining.IsPositive() {
			continue
		}
		index[doc.ID] = doc
		entriesByDoc[doc.ID] = entries
		targets = append(targets, ledger.AllocationTarget{
			DocumentID:       doc.ID,
			DocumentNumber:   doc.DocumentNumber,
			RemainingBalance: projection.Remaining,
			CreatedAt:        doc.CreatedAt,
		})
	}

	outcome, err := s.strategy.Allocate(valueobject.NewMoneyPKR(input.Amount), targets)
	if err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	for _, alloc := range outcome.Allocations {
		doc := index[alloc.DocumentID]
		entry, err := ledger.NewLedgerEntry(doc.ID, ledger.EntryKindPayment, alloc.AppliedAmount.Neg(),
			ledger.PaymentReference(payment.ID), input.Actor)
		if err != nil {
			return nil, err
		}
		entry.WithMemo(fmt.Sprintf("Payment %s via %s (FIFO)", payment.PaymentNumber, payment.Method))
		if err := repos.Entries().Append(ctx, entry); err != nil {
			return nil, err
		}
		if err := payment.RecordAllocation(doc.ID, doc.DocumentNumber, alloc.AppliedAmount); err != nil {
			return nil, err
		}

		entriesByDoc[doc.ID] = append(entriesByDoc[doc.ID], *entry)
		projection := ledger.ProjectBalance(doc.ID, doc.TotalAmount, entriesByDoc[doc.ID])
		doc.ApplyProjection(projection)
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return nil, err
		}
		events = append(events, drainEvents(doc)...)
	}

	// Leftover becomes advance credit, not an error.
	if payment.UnappliedAmount.IsPositive() {
		creditEvents, err := grantAdvanceCredit(ctx, repos, input.CounterpartyID, payment)
		if err != nil {
			return nil, err
		}
		events = append(events, creditEvents...)
	}
	return events, nil
}

// grantAdvanceCredit moves the unapplied remainder of a payment onto the
// counterparty's credit balance, in the same transaction
func grantAdvanceCredit(ctx context.Context, repos TransactionalRepositories, counterpartyID uuid.UUID, payment *ledger.Payment) ([]shared.DomainEvent, error) {
	cp, err := repos.Counterparties().FindByIDForUpdate(ctx, counterpartyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("COUNTERPARTY_NOT_FOUND",
				fmt.Sprintf("Counterparty %s does not exist", counterpartyID))
		}
		return nil, err
	}

	tx, err := cp.GrantCredit(payment.UnappliedAmount, partner.CreditSourceTypePayment, &payment.ID, payment.CreatedBy)
	if err != nil {
		return nil, err
	}
	tx.WithRemark(fmt.Sprintf("Advance from payment %s", payment.PaymentNumber))

	if err := repos.CreditTransactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := repos.Counterparties().SaveWithLock(ctx, cp); err != nil {
		return nil, err
	}
	return drainEvents(cp), nil
}

// consumeAdvanceCredit draws the full payment amount down from the
// counterparty's advance credit balance before allocation. A short
// balance fails the scope, so no entry survives a rejected draw; any
// unapplied remainder is re-granted by the normal leftover path.
func consumeAdvanceCredit(ctx context.Context, repos TransactionalRepositories, counterpartyID uuid.UUID, payment *ledger.Payment) ([]shared.DomainEvent, error) {
	cp, err := repos.Counterparties().FindByIDForUpdate(ctx, counterpartyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("COUNTERPARTY_NOT_FOUND",
				fmt.Sprintf("Counterparty %s does not exist", counterpartyID))
		}
		return nil, err
	}

	tx, err := cp.ConsumeCredit(payment.TotalAmount, partner.CreditSourceTypePayment, &payment.ID, payment.CreatedBy)
	if err != nil {
		return nil, err
	}
	tx.WithRemark(fmt.Sprintf("Credit applied to payment %s", payment.PaymentNumber))

	if err := repos.CreditTransactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := repos.Counterparties().SaveWithLock(ctx, cp); err != nil {
		return nil, err
	}
	return drainEvents(cp), nil
}

// lockDocument loads a document under a row lock, mapping a missing row
// to the ledger's not-found error
func lockDocument(ctx context.Context, repos TransactionalRepositories, documentID uuid.UUID) (*ledger.Document, error) {
	doc, err := repos.Documents().FindByIDForUpdate(ctx, documentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.NewDocumentNotFoundError(documentID)
		}
		return nil, err
	}
	return doc, nil
}

// drainEvents takes and clears the pending events of an aggregate
func drainEvents(agg shared.AggregateRoot) []shared.DomainEvent {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	return events
}

// publish fires events after a successful commit; failures are logged,
// not surfaced, because the books are already consistent
func (s *PaymentService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}
