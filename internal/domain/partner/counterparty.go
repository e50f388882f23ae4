package partner

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CounterpartyType distinguishes customers from vendors
type CounterpartyType string

const (
	CounterpartyTypeCustomer CounterpartyType = "customer"
	CounterpartyTypeVendor   CounterpartyType = "vendor"
)

// IsValid checks if the counterparty type is valid
func (t CounterpartyType) IsValid() bool {
	return t == CounterpartyTypeCustomer || t == CounterpartyTypeVendor
}

// String returns the string representation
func (t CounterpartyType) String() string {
	return string(t)
}

// Counterparty is a customer or vendor the store trades with. CreditBalance
// is the advance credit built up by overpayments and unapplied payment
// remainders; it only moves through immutable CreditTransactions.
type Counterparty struct {
	shared.BaseAggregateRoot
	Code          string
	Name          string
	Type          CounterpartyType
	Phone         string
	Address       string
	CreditBalance decimal.Decimal
	CreatedBy     string
}

// NewCounterparty creates a counterparty with zero credit
func NewCounterparty(cpType CounterpartyType, code, name, actor string) (*Counterparty, error) {
	if !cpType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY_TYPE", "Counterparty type must be customer or vendor")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Counterparty name is required")
	}

	cp := &Counterparty{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              cpType,
		CreditBalance:     decimal.Zero,
		CreatedBy:         actor,
	}
	cp.AddDomainEvent(NewCounterpartyCreatedEvent(cp))
	return cp, nil
}

// WithContact sets contact details
func (c *Counterparty) WithContact(phone, address string) *Counterparty {
	c.Phone = phone
	c.Address = address
	return c
}

// GrantCredit increases the advance credit balance and records the move
// as an immutable transaction
func (c *Counterparty) GrantCredit(amount decimal.Decimal, sourceType CreditSourceType, sourceID *uuid.UUID, actor string) (*CreditTransaction, error) {
	tx, err := CreateCreditGrantTransaction(c.ID, amount, c.CreditBalance, sourceType)
	if err != nil {
		return nil, err
	}
	tx.WithActor(actor)
	if sourceID != nil {
		tx.WithSourceID(*sourceID)
	}
	c.CreditBalance = tx.BalanceAfter
	c.AddDomainEvent(NewCreditBalanceChangedEvent(c, tx))
	return tx, nil
}

// ConsumeCredit spends advance credit against a document; fails when the
// balance does not cover the amount
func (c *Counterparty) ConsumeCredit(amount decimal.Decimal, sourceType CreditSourceType, sourceID *uuid.UUID, actor string) (*CreditTransaction, error) {
	tx, err := CreateCreditConsumeTransaction(c.ID, amount, c.CreditBalance, sourceType)
	if err != nil {
		return nil, err
	}
	tx.WithActor(actor)
	if sourceID != nil {
		tx.WithSourceID(*sourceID)
	}
	c.CreditBalance = tx.BalanceAfter
	c.AddDomainEvent(NewCreditBalanceChangedEvent(c, tx))
	return tx, nil
}
