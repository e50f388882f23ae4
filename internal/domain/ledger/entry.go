package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry
type EntryKind string

const (
	EntryKindPayment      EntryKind = "payment"       // money received, reduces what the counterparty owes
	EntryKindReturnCredit EntryKind = "return_credit" // goods returned, reduces what the counterparty owes
	EntryKindAdjustment   EntryKind = "adjustment"    // explicit signed correction
)

// IsValid checks if the entry kind is valid
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindPayment, EntryKindReturnCredit, EntryKindAdjustment:
		return true
	}
	return false
}

// String returns the string representation
func (k EntryKind) String() string {
	return string(k)
}

// ReferenceType identifies the record a ledger entry originates from
type ReferenceType string

const (
	ReferenceTypePayment ReferenceType = "payment"
	ReferenceTypeReturn  ReferenceType = "return"
	ReferenceTypeManual  ReferenceType = "manual"
)

// EntryReference points at the Payment or Return that produced an entry.
// Manual adjustments carry no referenced record.
type EntryReference struct {
	Type ReferenceType `json:"type"`
	ID   *uuid.UUID    `json:"id,omitempty"`
}

// PaymentReference builds a reference to a payment record
func PaymentReference(paymentID uuid.UUID) EntryReference {
	return EntryReference{Type: ReferenceTypePayment, ID: &paymentID}
}

// ReturnReference builds a reference to a return record
func ReturnReference(returnID uuid.UUID) EntryReference {
	return EntryReference{Type: ReferenceTypeReturn, ID: &returnID}
}

// ManualReference builds a reference for an explicit adjustment
func ManualReference() EntryReference {
	return EntryReference{Type: ReferenceTypeManual}
}

// LedgerEntry is one immutable monetary event recorded against a document.
// Sequence is assigned per document in append order; entries are never
// updated or deleted, corrections happen by appending new entries.
type LedgerEntry struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	Sequence     int64
	Kind         EntryKind
	SignedAmount decimal.Decimal // negative reduces what the counterparty owes
	Reference    EntryReference
	Memo         string
	CreatedBy    string
	CreatedAt    time.Time
}

// NewLedgerEntry creates a ledger entry pending persistence.
// Sequence is assigned by the store at append time.
func NewLedgerEntry(documentID uuid.UUID, kind EntryKind, signedAmount decimal.Decimal, reference EntryReference, actor string) (*LedgerEntry, error) {
	if !kind.IsValid() {
		return nil, NewInvalidAmountError("Unknown ledger entry kind: " + string(kind))
	}
	if signedAmount.IsZero() {
		return nil, NewInvalidAmountError("Ledger entry amount cannot be zero")
	}
	return &LedgerEntry{
		ID:           uuid.New(),
		DocumentID:   documentID,
		Kind:         kind,
		SignedAmount: signedAmount,
		Reference:    reference,
		CreatedBy:    actor,
		CreatedAt:    time.Now(),
	}, nil
}

// WithMemo attaches a human-readable note to the entry
func (e *LedgerEntry) WithMemo(memo string) *LedgerEntry {
	e.Memo = memo
	return e
}

// ReducesDebt reports whether the entry lowers the counterparty's obligation
func (e *LedgerEntry) ReducesDebt() bool {
	return e.SignedAmount.IsNegative()
}
