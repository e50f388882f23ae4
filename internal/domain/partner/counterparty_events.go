package partner

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCounterparty = "Counterparty"

// Event type constants
const (
	EventTypeCounterpartyCreated  = "partner.counterparty_created"
	EventTypeCreditBalanceChanged = "partner.credit_balance_changed"
)

// CounterpartyCreatedEvent is published when a counterparty is created
type CounterpartyCreatedEvent struct {
	shared.BaseDomainEvent
	CounterpartyID uuid.UUID        `json:"counterparty_id"`
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Type           CounterpartyType `json:"counterparty_type"`
}

// NewCounterpartyCreatedEvent creates a new CounterpartyCreatedEvent
func NewCounterpartyCreatedEvent(cp *Counterparty) *CounterpartyCreatedEvent {
	return &CounterpartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCounterpartyCreated, AggregateTypeCounterparty, cp.ID),
		CounterpartyID:  cp.ID,
		Code:            cp.Code,
		Name:            cp.Name,
		Type:            cp.Type,
	}
}

// CreditBalanceChangedEvent is published when advance credit moves
type CreditBalanceChangedEvent struct {
	shared.BaseDomainEvent
	CounterpartyID  uuid.UUID             `json:"counterparty_id"`
	TransactionType CreditTransactionType `json:"transaction_type"`
	Amount          decimal.Decimal       `json:"amount"`
	BalanceBefore   decimal.Decimal       `json:"balance_before"`
	BalanceAfter    decimal.Decimal       `json:"balance_after"`
}

// NewCreditBalanceChangedEvent creates a new CreditBalanceChangedEvent
func NewCreditBalanceChangedEvent(cp *Counterparty, tx *CreditTransaction) *CreditBalanceChangedEvent {
	return &CreditBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditBalanceChanged, AggregateTypeCounterparty, cp.ID),
		CounterpartyID:  cp.ID,
		TransactionType: tx.TransactionType,
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
	}
}
