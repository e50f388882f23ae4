package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes surfaced by the ledger core. Validation failures always
// roll back the enclosing atomic scope before reaching the caller.
const (
	ErrCodeDocumentNotFound    = "DOCUMENT_NOT_FOUND"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeOverpaymentRejected = "OVERPAYMENT_REJECTED"
	ErrCodeEmptyReturn         = "EMPTY_RETURN"
	ErrCodeOverReturnRejected  = "OVER_RETURN_REJECTED"
	ErrCodeDocumentHasEntries  = "DOCUMENT_HAS_ENTRIES"
)

// ErrEmptyReturn rejects a return request with no valid items
var ErrEmptyReturn = shared.NewDomainError(ErrCodeEmptyReturn, "Return has no valid items")

// NewDocumentNotFoundError reports a missing document by id
func NewDocumentNotFoundError(documentID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(ErrCodeDocumentNotFound,
		fmt.Sprintf("Document %s does not exist", documentID))
}

// NewInvalidAmountError reports a zero or otherwise unusable amount
func NewInvalidAmountError(reason string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidAmount, reason)
}

// NewOverpaymentError reports a targeted payment exceeding the document's
// remaining balance; the message carries both figures for display
func NewOverpaymentError(documentNumber string, amount, remaining decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(ErrCodeOverpaymentRejected,
		fmt.Sprintf("Payment of %s exceeds remaining balance %s on document %s",
			amount.StringFixed(2), remaining.StringFixed(2), documentNumber))
}

// NewOverReturnError reports a returned quantity exceeding what is still returnable on a line
func NewOverReturnError(lineID uuid.UUID, requested, returnable decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(ErrCodeOverReturnRejected,
		fmt.Sprintf("Return of %s units on line %s exceeds returnable quantity %s",
			requested.String(), lineID, returnable.String()))
}

// NewDocumentHasEntriesError rejects deletion of a document that ledger entries reference
func NewDocumentHasEntriesError(documentNumber string, entries int64) *shared.DomainError {
	return shared.NewDomainError(ErrCodeDocumentHasEntries,
		fmt.Sprintf("Document %s has %d ledger entries and cannot be deleted", documentNumber, entries))
}
