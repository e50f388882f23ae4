package ledger

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentType distinguishes customer invoices from vendor bills
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "invoice"     // counterparty owes us
	DocumentTypeVendorBill DocumentType = "vendor_bill" // we owe the counterparty
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeVendorBill
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}

// DocumentStatus is the payment status of a document. It is always
// recomputed from the balance projection after a ledger append, never
// advanced as an independent state machine, so a cached status column
// cannot drift from the underlying ledger.
type DocumentStatus string

const (
	DocumentStatusOpen    DocumentStatus = "open"
	DocumentStatusPartial DocumentStatus = "partial"
	DocumentStatusSettled DocumentStatus = "settled"
)

// String returns the string representation
func (s DocumentStatus) String() string {
	return string(s)
}

// IsOutstanding reports whether the document can still receive payments in FIFO order
func (s DocumentStatus) IsOutstanding() bool {
	return s == DocumentStatusOpen || s == DocumentStatusPartial
}

// StatusForBalance derives the payment status from the projected balance.
// Negative remaining (overpayment) counts as settled; the credit itself
// is reported by the projection, not clamped here.
func StatusForBalance(remaining, total decimal.Decimal) DocumentStatus {
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return DocumentStatusSettled
	case remaining.LessThan(total):
		return DocumentStatusPartial
	default:
		return DocumentStatusOpen
	}
}

// DocumentLine is one invoiced line on a document. Quantity and price are
// fixed at creation; returns reference lines by id.
type DocumentLine struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewDocumentLine creates a document line and computes its total
func NewDocumentLine(description string, quantity, unitPrice decimal.Decimal) (*DocumentLine, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Line unit price cannot be negative")
	}
	return &DocumentLine{
		ID:          uuid.New(),
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   quantity.Mul(unitPrice),
	}, nil
}

// Document is an Invoice or VendorBill: a fixed payment obligation whose
// effective remaining balance only the ledger changes. RemainingBalance
// and Status are a cache of the balance projection, refreshed inside the
// same transaction that appends a ledger entry.
type Document struct {
	shared.BaseAggregateRoot
	DocumentNumber   string
	Type             DocumentType
	CounterpartyID   uuid.UUID
	Lines            []DocumentLine
	TotalAmount      decimal.Decimal
	RemainingBalance decimal.Decimal
	Status           DocumentStatus
	CreatedBy        string
}

// NewDocument creates a document with its lines; the total is fixed here
// and never changes afterwards
func NewDocument(docType DocumentType, counterpartyID uuid.UUID, documentNumber string, lines []DocumentLine, actor string) (*Document, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Document type must be invoice or vendor_bill")
	}
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_DOCUMENT", "Document must have at least one line")
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, NewInvalidAmountError("Document total must be positive")
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocumentNumber:    documentNumber,
		Type:              docType,
		CounterpartyID:    counterpartyID,
		Lines:             lines,
		TotalAmount:       total,
		RemainingBalance:  total,
		Status:            DocumentStatusOpen,
		CreatedBy:         actor,
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

// LineByID finds a line on the document
func (d *Document) LineByID(lineID uuid.UUID) (*DocumentLine, bool) {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return &d.Lines[i], true
		}
	}
	return nil, false
}

// ApplyProjection refreshes the cached balance and status from a freshly
// computed projection. Emits a balance-changed event when the balance moved.
func (d *Document) ApplyProjection(p *BalanceProjection) {
	previous := d.RemainingBalance
	d.RemainingBalance = p.Remaining
	d.Status = p.Status
	if !previous.Equal(p.Remaining) {
		d.AddDomainEvent(NewBalanceChangedEvent(d, previous))
	}
}

// CanDelete reports whether the document may be removed. A document is
// never deleted while ledger entries reference it.
func (d *Document) CanDelete(entryCount int64) error {
	if entryCount > 0 {
		return NewDocumentHasEntriesError(d.DocumentNumber, entryCount)
	}
	return nil
}
