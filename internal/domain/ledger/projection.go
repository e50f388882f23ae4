package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceProjection is the current balance of a document derived by
// folding its ledger entries over the fixed total. It is a pure function
// of ledger state: two computations with no intervening appends are
// identical. Negative Remaining is legal and represents counterparty
// credit; it is reported, never clamped.
type BalanceProjection struct {
	DocumentID    uuid.UUID       `json:"document_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Remaining     decimal.Decimal `json:"remaining"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalCredited decimal.Decimal `json:"total_credited"`
	Status        DocumentStatus  `json:"status"`
}

// ProjectBalance folds the entries of a document:
// remaining = total_amount + sum(signed_amount).
// Entries must all belong to the given document.
func ProjectBalance(documentID uuid.UUID, totalAmount decimal.Decimal, entries []LedgerEntry) *BalanceProjection {
	remaining := totalAmount
	totalPaid := decimal.Zero
	totalCredited := decimal.Zero

	for _, entry := range entries {
		remaining = remaining.Add(entry.SignedAmount)
		switch entry.Kind {
		case EntryKindPayment:
			totalPaid = totalPaid.Sub(entry.SignedAmount)
		case EntryKindReturnCredit:
			totalCredited = totalCredited.Sub(entry.SignedAmount)
		}
	}

	return &BalanceProjection{
		DocumentID:    documentID,
		TotalAmount:   totalAmount,
		Remaining:     remaining,
		TotalPaid:     totalPaid,
		TotalCredited: totalCredited,
		Status:        StatusForBalance(remaining, totalAmount),
	}
}

// CounterpartyCredit returns the overpaid portion of the balance, zero
// when nothing was overpaid
func (p *BalanceProjection) CounterpartyCredit() decimal.Decimal {
	if p.Remaining.IsNegative() {
		return p.Remaining.Neg()
	}
	return decimal.Zero
}
