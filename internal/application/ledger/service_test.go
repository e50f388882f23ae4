package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory repositories backing the no-op scope. They mirror the query
// contracts the services rely on (ordering, locking is a no-op here).

type memDocumentRepo struct {
	byID map[uuid.UUID]*ledger.Document
	seq  int
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{byID: make(map[uuid.UUID]*ledger.Document)}
}

func (r *memDocumentRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Document, error) {
	doc, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func (r *memDocumentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	return r.FindByID(ctx, id)
}

func (r *memDocumentRepo) FindOutstandingByCounterparty(_ context.Context, counterpartyID uuid.UUID) ([]ledger.Document, error) {
	docs := make([]ledger.Document, 0)
	for _, doc := range r.byID {
		if doc.CounterpartyID == counterpartyID && doc.Status.IsOutstanding() {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return strings.Compare(docs[i].ID.String(), docs[j].ID.String()) < 0
	})
	return docs, nil
}

func (r *memDocumentRepo) FindOutstandingByCounterpartyForUpdate(ctx context.Context, counterpartyID uuid.UUID) ([]ledger.Document, error) {
	return r.FindOutstandingByCounterparty(ctx, counterpartyID)
}

func (r *memDocumentRepo) FindAll(_ context.Context, _ shared.Filter) ([]ledger.Document, int64, error) {
	docs := make([]ledger.Document, 0, len(r.byID))
	for _, doc := range r.byID {
		docs = append(docs, *doc)
	}
	return docs, int64(len(docs)), nil
}

func (r *memDocumentRepo) Save(_ context.Context, doc *ledger.Document) error {
	r.byID[doc.ID] = doc
	return nil
}

func (r *memDocumentRepo) SaveWithLock(_ context.Context, doc *ledger.Document) error {
	r.byID[doc.ID] = doc
	return nil
}

func (r *memDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *memDocumentRepo) GenerateDocumentNumber(_ context.Context, docType ledger.DocumentType) (string, error) {
	r.seq++
	prefix := "INV"
	if docType == ledger.DocumentTypeVendorBill {
		prefix = "BILL"
	}
	return fmt.Sprintf("%s-%05d", prefix, r.seq), nil
}

type memEntryRepo struct {
	byDoc      map[uuid.UUID][]ledger.LedgerEntry
	appendFail error
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{byDoc: make(map[uuid.UUID][]ledger.LedgerEntry)}
}

func (r *memEntryRepo) Append(_ context.Context, entry *ledger.LedgerEntry) error {
	if r.appendFail != nil {
		return r.appendFail
	}
	entry.Sequence = int64(len(r.byDoc[entry.DocumentID]) + 1)
	r.byDoc[entry.DocumentID] = append(r.byDoc[entry.DocumentID], *entry)
	return nil
}

func (r *memEntryRepo) FindByDocument(_ context.Context, documentID uuid.UUID) ([]ledger.LedgerEntry, error) {
	entries := make([]ledger.LedgerEntry, len(r.byDoc[documentID]))
	copy(entries, r.byDoc[documentID])
	return entries, nil
}

func (r *memEntryRepo) CountByDocument(_ context.Context, documentID uuid.UUID) (int64, error) {
	return int64(len(r.byDoc[documentID])), nil
}

type memPaymentRepo struct {
	saved []*ledger.Payment
	seq   int
}

func (r *memPaymentRepo) Save(_ context.Context, payment *ledger.Payment) error {
	r.saved = append(r.saved, payment)
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Payment, error) {
	for _, p := range r.saved {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindByCounterparty(_ context.Context, counterpartyID uuid.UUID, _ shared.Filter) ([]ledger.Payment, int64, error) {
	payments := make([]ledger.Payment, 0)
	for _, p := range r.saved {
		if p.CounterpartyID == counterpartyID {
			payments = append(payments, *p)
		}
	}
	return payments, int64(len(payments)), nil
}

func (r *memPaymentRepo) GeneratePaymentNumber(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("PAY-%05d", r.seq), nil
}

type memReturnRepo struct {
	saved []*ledger.Return
	seq   int
}

func (r *memReturnRepo) Save(_ context.Context, ret *ledger.Return) error {
	r.saved = append(r.saved, ret)
	return nil
}

func (r *memReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Return, error) {
	for _, ret := range r.saved {
		if ret.ID == id {
			return ret, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReturnRepo) FindByDocument(_ context.Context, documentID uuid.UUID) ([]ledger.Return, error) {
	returns := make([]ledger.Return, 0)
	for _, ret := range r.saved {
		if ret.DocumentID == documentID {
			returns = append(returns, *ret)
		}
	}
	return returns, nil
}

func (r *memReturnRepo) GenerateReturnNumber(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("RET-%05d", r.seq), nil
}

type memCounterpartyRepo struct {
	byID map[uuid.UUID]*partner.Counterparty
}

func newMemCounterpartyRepo() *memCounterpartyRepo {
	return &memCounterpartyRepo{byID: make(map[uuid.UUID]*partner.Counterparty)}
}

func (r *memCounterpartyRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Counterparty, error) {
	cp, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cp, nil
}

func (r *memCounterpartyRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Counterparty, error) {
	return r.FindByID(ctx, id)
}

func (r *memCounterpartyRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Counterparty, int64, error) {
	cps := make([]partner.Counterparty, 0, len(r.byID))
	for _, cp := range r.byID {
		cps = append(cps, *cp)
	}
	return cps, int64(len(cps)), nil
}

func (r *memCounterpartyRepo) Save(_ context.Context, cp *partner.Counterparty) error {
	r.byID[cp.ID] = cp
	return nil
}

func (r *memCounterpartyRepo) SaveWithLock(_ context.Context, cp *partner.Counterparty) error {
	r.byID[cp.ID] = cp
	return nil
}

type memCreditTxRepo struct {
	saved []*partner.CreditTransaction
}

func (r *memCreditTxRepo) Save(_ context.Context, tx *partner.CreditTransaction) error {
	r.saved = append(r.saved, tx)
	return nil
}

func (r *memCreditTxRepo) FindByCounterparty(_ context.Context, counterpartyID uuid.UUID, _ shared.Filter) ([]partner.CreditTransaction, int64, error) {
	txs := make([]partner.CreditTransaction, 0)
	for _, tx := range r.saved {
		if tx.CounterpartyID == counterpartyID {
			txs = append(txs, *tx)
		}
	}
	return txs, int64(len(txs)), nil
}

type memAuditRepo struct {
	notes []*ledger.AuditNote
}

func (r *memAuditRepo) Append(_ context.Context, note *ledger.AuditNote) error {
	r.notes = append(r.notes, note)
	return nil
}

func (r *memAuditRepo) FindByDocument(_ context.Context, documentID uuid.UUID) ([]ledger.AuditNote, error) {
	notes := make([]ledger.AuditNote, 0)
	for _, note := range r.notes {
		if note.DocumentID != nil && *note.DocumentID == documentID {
			notes = append(notes, *note)
		}
	}
	return notes, nil
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

type fixture struct {
	docs      *memDocumentRepo
	entries   *memEntryRepo
	payments  *memPaymentRepo
	returns   *memReturnRepo
	cps       *memCounterpartyRepo
	credits   *memCreditTxRepo
	audit     *memAuditRepo
	publisher *capturingPublisher

	documents   *DocumentService
	payment     *PaymentService
	ret         *ReturnService
	adjustments *AdjustmentService
	balances    *BalanceService

	counterpartyID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:      newMemDocumentRepo(),
		entries:   newMemEntryRepo(),
		payments:  &memPaymentRepo{},
		returns:   &memReturnRepo{},
		cps:       newMemCounterpartyRepo(),
		credits:   &memCreditTxRepo{},
		audit:     &memAuditRepo{},
		publisher: &capturingPublisher{},
	}

	scope := NewNoOpTransactionScope(f.docs, f.entries, f.payments, f.returns, f.cps, f.credits, f.audit)
	log := zap.NewNop()

	f.documents = NewDocumentService(scope, f.publisher, log)
	f.payment = NewPaymentService(scope, f.publisher, log)
	f.ret = NewReturnService(scope, f.publisher, log)
	f.adjustments = NewAdjustmentService(scope, f.publisher, log)
	f.balances = NewBalanceService(f.docs, f.entries, f.audit, nil, log)

	cp, err := partner.NewCounterparty(partner.CounterpartyTypeCustomer, "CUST-001", "Ali Traders", "clerk")
	require.NoError(t, err)
	cp.ClearDomainEvents()
	f.cps.byID[cp.ID] = cp
	f.counterpartyID = cp.ID
	return f
}

// createInvoice creates an invoice through the document service and pins
// its created_at so FIFO order in tests is explicit
func (f *fixture) createInvoice(t *testing.T, total int64, createdAt time.Time) *ledger.Document {
	t.Helper()
	doc, err := f.documents.CreateDocument(context.Background(), CreateDocumentInput{
		Type:           ledger.DocumentTypeInvoice,
		CounterpartyID: f.counterpartyID,
		Lines: []DocumentLineInput{
			{Description: "Goods", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(total)},
		},
		Actor: "clerk",
	})
	require.NoError(t, err)
	doc.CreatedAt = createdAt
	return doc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestDocumentServiceCreateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("creates invoice with generated number and audit note", func(t *testing.T) {
		f := newFixture(t)

		doc, err := f.documents.CreateDocument(ctx, CreateDocumentInput{
			Type:           ledger.DocumentTypeInvoice,
			CounterpartyID: f.counterpartyID,
			Lines: []DocumentLineInput{
				{Description: "Steel rods", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(50)},
				{Description: "Cement bags", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(25)},
			},
			Actor: "clerk",
		})

		require.NoError(t, err)
		assert.Equal(t, "INV-00001", doc.DocumentNumber)
		assert.True(t, doc.TotalAmount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, ledger.DocumentStatusOpen, doc.Status)
		require.Len(t, f.audit.notes, 1)
		assert.Equal(t, "create_document", f.audit.notes[0].Operation)
		assert.Contains(t, f.publisher.eventTypes(), ledger.EventTypeDocumentCreated)
	})

	t.Run("rejects unknown counterparty", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.documents.CreateDocument(ctx, CreateDocumentInput{
			Type:           ledger.DocumentTypeInvoice,
			CounterpartyID: uuid.New(),
			Lines: []DocumentLineInput{
				{Description: "Goods", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
			},
			Actor: "clerk",
		})

		assertCode(t, err, "COUNTERPARTY_NOT_FOUND")
	})

	t.Run("rejects invalid lines before opening a scope", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.documents.CreateDocument(ctx, CreateDocumentInput{
			Type:           ledger.DocumentTypeInvoice,
			CounterpartyID: f.counterpartyID,
			Lines: []DocumentLineInput{
				{Description: "Goods", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(100)},
			},
			Actor: "clerk",
		})

		assertCode(t, err, "INVALID_QUANTITY")
		assert.Empty(t, f.audit.notes)
	})
}

func TestDocumentServiceDeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes document with no ledger entries", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		err := f.documents.DeleteDocument(ctx, doc.ID, "manager")

		require.NoError(t, err)
		_, err = f.docs.FindByID(ctx, doc.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("refuses once the ledger references it", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(400),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		err = f.documents.DeleteDocument(ctx, doc.ID, "manager")

		assertCode(t, err, ledger.ErrCodeDocumentHasEntries)
	})
}

func TestPaymentServiceTargeted(t *testing.T) {
	ctx := context.Background()

	t.Run("exact payment settles the document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(1000),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodBankTransfer,
			Reference:      "TRX-42",
			Actor:          "clerk",
		})

		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.True(t, result.Allocations[0].AppliedAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.UnappliedAmount.IsZero())
		require.NotNil(t, result.NewBalance)
		assert.True(t, result.NewBalance.Remaining.IsZero())
		assert.Equal(t, ledger.DocumentStatusSettled, result.NewBalance.Status)

		stored, err := f.docs.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.DocumentStatusSettled, stored.Status)

		entries, _ := f.entries.FindByDocument(ctx, doc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.EntryKindPayment, entries[0].Kind)
		assert.True(t, entries[0].SignedAmount.Equal(decimal.NewFromInt(-1000)))
		assert.Contains(t, f.publisher.eventTypes(), ledger.EventTypeBalanceChanged)
		assert.Contains(t, f.publisher.eventTypes(), ledger.EventTypePaymentRecorded)
	})

	t.Run("partial payment leaves the document partial", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(400),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		assert.True(t, result.NewBalance.Remaining.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, ledger.DocumentStatusPartial, result.NewBalance.Status)
	})

	t.Run("overpayment rejected by default", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(1200),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		assertCode(t, err, ledger.ErrCodeOverpaymentRejected)
		entries, _ := f.entries.FindByDocument(ctx, doc.ID)
		assert.Empty(t, entries)
		assert.Empty(t, f.payments.saved)
	})

	t.Run("allowed overpayment converts excess to advance credit", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID:   f.counterpartyID,
			Amount:           decimal.NewFromInt(1200),
			DocumentID:       &doc.ID,
			Method:           ledger.PaymentMethodCash,
			Actor:            "clerk",
			AllowOverpayment: true,
		})

		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.True(t, result.Allocations[0].AppliedAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(200)))
		assert.True(t, result.NewBalance.Remaining.IsZero())

		cp, err := f.cps.FindByID(ctx, f.counterpartyID)
		require.NoError(t, err)
		assert.True(t, cp.CreditBalance.Equal(decimal.NewFromInt(200)))
		require.Len(t, f.credits.saved, 1)
		assert.Equal(t, partner.CreditTransactionTypeGrant, f.credits.saved[0].TransactionType)
	})

	t.Run("rejects document of another counterparty", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		other, err := partner.NewCounterparty(partner.CounterpartyTypeCustomer, "CUST-002", "Bilal & Sons", "clerk")
		require.NoError(t, err)
		f.cps.byID[other.ID] = other

		_, err = f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: other.ID,
			Amount:         decimal.NewFromInt(100),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		assertCode(t, err, "COUNTERPARTY_MISMATCH")
	})

	t.Run("missing document", func(t *testing.T) {
		f := newFixture(t)
		missing := uuid.New()

		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(100),
			DocumentID:     &missing,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		assertCode(t, err, ledger.ErrCodeDocumentNotFound)
	})

	t.Run("rejects non-positive amount and unknown method upfront", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.Zero,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		assertCode(t, err, ledger.ErrCodeInvalidAmount)

		_, err = f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(100),
			Method:         "crypto",
			Actor:          "clerk",
		})
		assertCode(t, err, "INVALID_PAYMENT_METHOD")
	})
}

func TestPaymentServiceFIFO(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	t.Run("spreads payment across outstanding documents oldest first", func(t *testing.T) {
		f := newFixture(t)
		oldest := f.createInvoice(t, 500, base)
		middle := f.createInvoice(t, 300, base.Add(time.Hour))
		newest := f.createInvoice(t, 400, base.Add(2*time.Hour))

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(700),
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		require.Len(t, result.Allocations, 2)
		assert.Equal(t, oldest.ID, result.Allocations[0].DocumentID)
		assert.True(t, result.Allocations[0].AppliedAmount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, middle.ID, result.Allocations[1].DocumentID)
		assert.True(t, result.Allocations[1].AppliedAmount.Equal(decimal.NewFromInt(200)))
		assert.True(t, result.UnappliedAmount.IsZero())

		storedOldest, _ := f.docs.FindByID(ctx, oldest.ID)
		storedMiddle, _ := f.docs.FindByID(ctx, middle.ID)
		storedNewest, _ := f.docs.FindByID(ctx, newest.ID)
		assert.Equal(t, ledger.DocumentStatusSettled, storedOldest.Status)
		assert.Equal(t, ledger.DocumentStatusPartial, storedMiddle.Status)
		assert.True(t, storedMiddle.RemainingBalance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, ledger.DocumentStatusOpen, storedNewest.Status)

		require.Len(t, f.payments.saved, 1)
		assert.True(t, f.payments.saved[0].ConservationHolds())
	})

	t.Run("leftover beyond all documents becomes advance credit", func(t *testing.T) {
		f := newFixture(t)
		f.createInvoice(t, 300, base)

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(500),
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(200)))
		cp, _ := f.cps.FindByID(ctx, f.counterpartyID)
		assert.True(t, cp.CreditBalance.Equal(decimal.NewFromInt(200)))
	})

	t.Run("no outstanding documents sends everything to credit", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(400),
			Method:         ledger.PaymentMethodCard,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		assert.Empty(t, result.Allocations)
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(400)))
		cp, _ := f.cps.FindByID(ctx, f.counterpartyID)
		assert.True(t, cp.CreditBalance.Equal(decimal.NewFromInt(400)))
	})

	t.Run("two sequential payments do not double count", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, base)

		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(600),
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(600),
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		// Second payment only finds 400 outstanding; the rest is credit.
		require.Len(t, result.Allocations, 1)
		assert.True(t, result.Allocations[0].AppliedAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(200)))

		stored, _ := f.docs.FindByID(ctx, doc.ID)
		assert.Equal(t, ledger.DocumentStatusSettled, stored.Status)
		assert.True(t, stored.RemainingBalance.IsZero())
	})
}

func TestReturnService(t *testing.T) {
	ctx := context.Background()

	// invoice with one line: 10 units at 100
	setup := func(t *testing.T) (*fixture, *ledger.Document, uuid.UUID) {
		f := newFixture(t)
		doc, err := f.documents.CreateDocument(ctx, CreateDocumentInput{
			Type:           ledger.DocumentTypeInvoice,
			CounterpartyID: f.counterpartyID,
			Lines: []DocumentLineInput{
				{Description: "Steel rods", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
			},
			Actor: "clerk",
		})
		require.NoError(t, err)
		return f, doc, doc.Lines[0].ID
	}

	t.Run("credits returned quantity at the original price", func(t *testing.T) {
		f, doc, lineID := setup(t)

		result, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(4)}},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		assert.True(t, result.CreditAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, result.NewBalance.Remaining.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, ledger.DocumentStatusPartial, result.NewBalance.Status)

		entries, _ := f.entries.FindByDocument(ctx, doc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.EntryKindReturnCredit, entries[0].Kind)
		assert.True(t, entries[0].SignedAmount.Equal(decimal.NewFromInt(-400)))
		assert.Contains(t, f.publisher.eventTypes(), ledger.EventTypeReturnProcessed)
	})

	t.Run("prior returns reduce what is still returnable", func(t *testing.T) {
		f, doc, lineID := setup(t)
		_, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(4)}},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		_, err = f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(7)}},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})

		assertCode(t, err, ledger.ErrCodeOverReturnRejected)

		// Exactly the remaining 6 still goes through.
		result, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(6)}},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})
		require.NoError(t, err)
		assert.True(t, result.CreditAmount.Equal(decimal.NewFromInt(600)))
	})

	t.Run("duplicate lines inside one request share the bound", func(t *testing.T) {
		f, doc, lineID := setup(t)

		_, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID: doc.ID,
			Items: []ReturnItemInput{
				{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(6)},
				{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(5)},
			},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})

		assertCode(t, err, ledger.ErrCodeOverReturnRejected)
		entries, _ := f.entries.FindByDocument(ctx, doc.ID)
		assert.Empty(t, entries)
	})

	t.Run("unknown line", func(t *testing.T) {
		f, doc, _ := setup(t)

		_, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: uuid.New(), ReturnedQuantity: decimal.NewFromInt(1)}},
			SettlementType: ledger.SettlementTypeCredit,
			Actor:          "clerk",
		})

		assertCode(t, err, "LINE_NOT_FOUND")
	})

	t.Run("empty item list", func(t *testing.T) {
		f, doc, _ := setup(t)

		_, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			SettlementType: ledger.SettlementTypeRefund,
			Actor:          "clerk",
		})

		assertCode(t, err, ledger.ErrCodeEmptyReturn)
	})

	t.Run("return after settlement drives the balance negative", func(t *testing.T) {
		f, doc, lineID := setup(t)
		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(1000),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		result, err := f.ret.ProcessReturn(ctx, ProcessReturnInput{
			DocumentID:     doc.ID,
			Items:          []ReturnItemInput{{OriginalLineID: lineID, ReturnedQuantity: decimal.NewFromInt(4)}},
			SettlementType: ledger.SettlementTypeRefund,
			Actor:          "clerk",
		})

		require.NoError(t, err)
		assert.True(t, result.NewBalance.Remaining.Equal(decimal.NewFromInt(-400)))
		assert.Equal(t, ledger.DocumentStatusSettled, result.NewBalance.Status)
		assert.True(t, result.NewBalance.CounterpartyCredit().Equal(decimal.NewFromInt(400)))
	})
}

func TestAdjustmentService(t *testing.T) {
	ctx := context.Background()

	t.Run("negative adjustment reduces the balance", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		result, err := f.adjustments.RecordAdjustment(ctx, RecordAdjustmentInput{
			DocumentID:   doc.ID,
			SignedAmount: decimal.NewFromInt(-150),
			Memo:         "pricing error on line 1",
			Actor:        "manager",
		})

		require.NoError(t, err)
		assert.True(t, result.NewBalance.Remaining.Equal(decimal.NewFromInt(850)))
		assert.Equal(t, ledger.DocumentStatusPartial, result.NewBalance.Status)

		entries, _ := f.entries.FindByDocument(ctx, doc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.EntryKindAdjustment, entries[0].Kind)
		assert.Equal(t, "pricing error on line 1", entries[0].Memo)
		require.Len(t, f.audit.notes, 2) // create + adjustment
	})

	t.Run("positive adjustment re-opens a settled document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(1000),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		result, err := f.adjustments.RecordAdjustment(ctx, RecordAdjustmentInput{
			DocumentID:   doc.ID,
			SignedAmount: decimal.NewFromInt(200),
			Memo:         "undo over-credited return",
			Actor:        "manager",
		})

		require.NoError(t, err)
		assert.True(t, result.NewBalance.Remaining.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, ledger.DocumentStatusPartial, result.NewBalance.Status)

		stored, _ := f.docs.FindByID(ctx, doc.ID)
		assert.Equal(t, ledger.DocumentStatusPartial, stored.Status)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		_, err := f.adjustments.RecordAdjustment(ctx, RecordAdjustmentInput{
			DocumentID:   doc.ID,
			SignedAmount: decimal.Zero,
			Memo:         "noop",
			Actor:        "manager",
		})

		assertCode(t, err, ledger.ErrCodeInvalidAmount)
	})

	t.Run("requires a memo", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())

		_, err := f.adjustments.RecordAdjustment(ctx, RecordAdjustmentInput{
			DocumentID:   doc.ID,
			SignedAmount: decimal.NewFromInt(-50),
			Actor:        "manager",
		})

		assertCode(t, err, "MEMO_REQUIRED")
	})
}

func TestBalanceService(t *testing.T) {
	ctx := context.Background()

	t.Run("balance is derived from the ledger and stable", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(600),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
		})
		require.NoError(t, err)

		first, err := f.balances.BalanceOf(ctx, doc.ID)
		require.NoError(t, err)
		second, err := f.balances.BalanceOf(ctx, doc.ID)
		require.NoError(t, err)

		assert.True(t, first.Remaining.Equal(decimal.NewFromInt(400)))
		assert.True(t, first.TotalPaid.Equal(decimal.NewFromInt(600)))
		assert.True(t, first.Remaining.Equal(second.Remaining))
		assert.Equal(t, first.Status, second.Status)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.balances.BalanceOf(ctx, uuid.New())

		assertCode(t, err, ledger.ErrCodeDocumentNotFound)
	})

	t.Run("ledger history in append order", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		for _, amount := range []int64{300, 200, 100} {
			_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
				CounterpartyID: f.counterpartyID,
				Amount:         decimal.NewFromInt(amount),
				DocumentID:     &doc.ID,
				Method:         ledger.PaymentMethodCash,
				Actor:          "clerk",
			})
			require.NoError(t, err)
		}

		history, err := f.balances.LedgerHistory(ctx, doc.ID)

		require.NoError(t, err)
		require.Len(t, history, 3)
		for i, entry := range history {
			assert.Equal(t, int64(i+1), entry.Sequence)
		}
	})

	t.Run("open documents listed in allocation order", func(t *testing.T) {
		f := newFixture(t)
		base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		second := f.createInvoice(t, 300, base.Add(time.Hour))
		first := f.createInvoice(t, 500, base)

		docs, err := f.balances.ListOpenDocuments(ctx, f.counterpartyID)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, first.ID, docs[0].ID)
		assert.Equal(t, second.ID, docs[1].ID)
	})

	t.Run("audit trail for a document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.createInvoice(t, 1000, time.Now())
		_, err := f.adjustments.RecordAdjustment(ctx, RecordAdjustmentInput{
			DocumentID:   doc.ID,
			SignedAmount: decimal.NewFromInt(-100),
			Memo:         "goodwill discount",
			Actor:        "manager",
		})
		require.NoError(t, err)

		notes, err := f.balances.AuditTrail(ctx, doc.ID)

		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "create_document", notes[0].Operation)
		assert.Equal(t, "record_adjustment", notes[1].Operation)
	})
}

func TestCounterpartyService(t *testing.T) {
	ctx := context.Background()

	newService := func(f *fixture) *CounterpartyService {
		return NewCounterpartyService(f.cps, f.credits, f.publisher, zap.NewNop())
	}

	t.Run("creates counterparty with zero credit and publishes event", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		cp, err := svc.CreateCounterparty(ctx, CreateCounterpartyInput{
			Type:    partner.CounterpartyTypeVendor,
			Code:    "VEND-007",
			Name:    "Karachi Steel Mills",
			Phone:   "0300-1234567",
			Address: "Plot 12, SITE Area",
			Actor:   "clerk",
		})

		require.NoError(t, err)
		assert.Equal(t, "VEND-007", cp.Code)
		assert.Equal(t, partner.CounterpartyTypeVendor, cp.Type)
		assert.Equal(t, "0300-1234567", cp.Phone)
		assert.True(t, cp.CreditBalance.IsZero())

		stored, err := f.cps.FindByID(ctx, cp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Karachi Steel Mills", stored.Name)
		assert.Contains(t, f.publisher.eventTypes(), partner.EventTypeCounterpartyCreated)
	})

	t.Run("rejects counterparty without a name", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		_, err := svc.CreateCounterparty(ctx, CreateCounterpartyInput{
			Type:  partner.CounterpartyTypeCustomer,
			Code:  "CUST-099",
			Actor: "clerk",
		})

		assertCode(t, err, "INVALID_NAME")
	})

	t.Run("get returns COUNTERPARTY_NOT_FOUND for unknown id", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		_, err := svc.GetCounterparty(ctx, uuid.New())

		assertCode(t, err, "COUNTERPARTY_NOT_FOUND")
	})

	t.Run("lists counterparties with pagination metadata", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		_, err := svc.CreateCounterparty(ctx, CreateCounterpartyInput{
			Type:  partner.CounterpartyTypeVendor,
			Code:  "VEND-001",
			Name:  "Lahore Pipes",
			Actor: "clerk",
		})
		require.NoError(t, err)

		page, err := svc.ListCounterparties(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		// fixture seeds one customer, so two in total
		assert.Equal(t, int64(2), page.Total)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("credit history validates counterparty existence", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		_, err := svc.CreditHistory(ctx, uuid.New(), shared.DefaultFilter())

		assertCode(t, err, "COUNTERPARTY_NOT_FOUND")
	})

	t.Run("credit history returns recorded grants", func(t *testing.T) {
		f := newFixture(t)
		svc := newService(f)

		cp := f.cps.byID[f.counterpartyID]
		tx, err := cp.GrantCredit(decimal.NewFromInt(250), partner.CreditSourceTypePayment, nil, "clerk")
		require.NoError(t, err)
		require.NoError(t, f.credits.Save(ctx, tx))

		page, err := svc.CreditHistory(ctx, f.counterpartyID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		got := page.Items[0]
		assert.Equal(t, partner.CreditTransactionTypeGrant, got.TransactionType)
		assert.True(t, got.Amount.Equal(decimal.NewFromInt(250)))
		assert.True(t, got.BalanceBefore.IsZero())
		assert.True(t, got.BalanceAfter.Equal(decimal.NewFromInt(250)))
	})
}

func TestPaymentServiceWithCredit(t *testing.T) {
	ctx := context.Background()

	grantCredit := func(t *testing.T, f *fixture, amount int64) {
		t.Helper()
		cp := f.cps.byID[f.counterpartyID]
		tx, err := cp.GrantCredit(decimal.NewFromInt(amount), partner.CreditSourceTypePayment, nil, "clerk")
		require.NoError(t, err)
		require.NoError(t, f.credits.Save(ctx, tx))
		cp.ClearDomainEvents()
	}

	t.Run("credit funded payment settles document and draws balance down", func(t *testing.T) {
		f := newFixture(t)
		grantCredit(t, f, 500)
		doc := f.createInvoice(t, 300, time.Now())

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(300),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
			UseCredit:      true,
		})

		require.NoError(t, err)
		assert.True(t, result.NewBalance.Remaining.IsZero())
		assert.Equal(t, ledger.DocumentStatusSettled, f.docs.byID[doc.ID].Status)
		assert.True(t, f.cps.byID[f.counterpartyID].CreditBalance.Equal(decimal.NewFromInt(200)))

		// grant from the seed plus the consume for this payment
		require.Len(t, f.credits.saved, 2)
		consume := f.credits.saved[1]
		assert.Equal(t, partner.CreditTransactionTypeConsume, consume.TransactionType)
		assert.True(t, consume.Amount.Equal(decimal.NewFromInt(300)))
		assert.True(t, consume.BalanceBefore.Equal(decimal.NewFromInt(500)))
		assert.True(t, consume.BalanceAfter.Equal(decimal.NewFromInt(200)))
		require.NotNil(t, consume.SourceID)
		assert.Equal(t, result.PaymentID, *consume.SourceID)
		assert.Contains(t, f.publisher.eventTypes(), partner.EventTypeCreditBalanceChanged)
	})

	t.Run("rejects credit funded payment exceeding the balance", func(t *testing.T) {
		f := newFixture(t)
		grantCredit(t, f, 100)
		doc := f.createInvoice(t, 300, time.Now())

		_, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(300),
			DocumentID:     &doc.ID,
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
			UseCredit:      true,
		})

		assertCode(t, err, "INSUFFICIENT_CREDIT")
		assert.True(t, f.cps.byID[f.counterpartyID].CreditBalance.Equal(decimal.NewFromInt(100)))
		entries, findErr := f.entries.FindByDocument(ctx, doc.ID)
		require.NoError(t, findErr)
		assert.Empty(t, entries)
		assert.Empty(t, f.payments.saved)
	})

	t.Run("unapplied remainder of a credit funded payment is re-granted", func(t *testing.T) {
		f := newFixture(t)
		grantCredit(t, f, 500)
		f.createInvoice(t, 200, time.Now())

		result, err := f.payment.ApplyPayment(ctx, ApplyPaymentInput{
			CounterpartyID: f.counterpartyID,
			Amount:         decimal.NewFromInt(500),
			Method:         ledger.PaymentMethodCash,
			Actor:          "clerk",
			UseCredit:      true,
		})

		require.NoError(t, err)
		assert.True(t, result.UnappliedAmount.Equal(decimal.NewFromInt(300)))

		// consume 500 then re-grant the 300 that found no document
		require.Len(t, f.credits.saved, 3)
		assert.Equal(t, partner.CreditTransactionTypeConsume, f.credits.saved[1].TransactionType)
		assert.Equal(t, partner.CreditTransactionTypeGrant, f.credits.saved[2].TransactionType)
		assert.True(t, f.cps.byID[f.counterpartyID].CreditBalance.Equal(decimal.NewFromInt(300)))
	})
}
