package ledger

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the money came in
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment records one money-in event. In FIFO mode it may span multiple
// documents; allocations are kept in the order they were applied.
// Invariant: sum(Allocations.AppliedAmount) + UnappliedAmount == TotalAmount.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNumber   string
	CounterpartyID  uuid.UUID
	TotalAmount     decimal.Decimal
	Method          PaymentMethod
	Reference       string
	Allocations     []Allocation
	UnappliedAmount decimal.Decimal
	CreatedBy       string
}

// NewPayment creates a payment with the full amount still unapplied
func NewPayment(counterpartyID uuid.UUID, paymentNumber string, totalAmount decimal.Decimal, method PaymentMethod, reference, actor string) (*Payment, error) {
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID is required")
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, NewInvalidAmountError("Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(method))
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     paymentNumber,
		CounterpartyID:    counterpartyID,
		TotalAmount:       totalAmount,
		Method:            method,
		Reference:         reference,
		Allocations:       make([]Allocation, 0),
		UnappliedAmount:   totalAmount,
		CreatedBy:         actor,
	}, nil
}

// RecordAllocation appends one applied slice in order and moves it out of
// the unapplied remainder
func (p *Payment) RecordAllocation(documentID uuid.UUID, documentNumber string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewInvalidAmountError("Allocation amount must be positive")
	}
	if amount.GreaterThan(p.UnappliedAmount) {
		return NewInvalidAmountError("Allocation exceeds unapplied payment amount")
	}
	p.Allocations = append(p.Allocations, Allocation{
		DocumentID:     documentID,
		DocumentNumber: documentNumber,
		AppliedAmount:  amount,
	})
	p.UnappliedAmount = p.UnappliedAmount.Sub(amount)
	return nil
}

// AllocatedAmount sums all applied slices
func (p *Payment) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.AppliedAmount)
	}
	return total
}

// ConservationHolds verifies the payment invariant
func (p *Payment) ConservationHolds() bool {
	return p.AllocatedAmount().Add(p.UnappliedAmount).Equal(p.TotalAmount)
}
