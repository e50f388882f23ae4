package ledger

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeDocument = "Document"
	AggregateTypePayment  = "Payment"
	AggregateTypeReturn   = "Return"
)

// Event type constants. BalanceChanged is the notification hook the
// surrounding application (UI refresh, cache invalidation) subscribes to.
const (
	EventTypeDocumentCreated = "ledger.document_created"
	EventTypeBalanceChanged  = "ledger.balance_changed"
	EventTypePaymentRecorded = "ledger.payment_recorded"
	EventTypeReturnProcessed = "ledger.return_processed"
)

// DocumentCreatedEvent is published when a new document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Type           DocumentType    `json:"document_type"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		DocumentNumber:  doc.DocumentNumber,
		Type:            doc.Type,
		CounterpartyID:  doc.CounterpartyID,
		TotalAmount:     doc.TotalAmount,
	}
}

// BalanceChangedEvent is published after a ledger append moved a
// document's projected balance
type BalanceChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID       uuid.UUID       `json:"document_id"`
	DocumentNumber   string          `json:"document_number"`
	CounterpartyID   uuid.UUID       `json:"counterparty_id"`
	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           DocumentStatus  `json:"status"`
}

// NewBalanceChangedEvent creates a new BalanceChangedEvent
func NewBalanceChangedEvent(doc *Document, previousBalance decimal.Decimal) *BalanceChangedEvent {
	return &BalanceChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBalanceChanged, AggregateTypeDocument, doc.ID),
		DocumentID:       doc.ID,
		DocumentNumber:   doc.DocumentNumber,
		CounterpartyID:   doc.CounterpartyID,
		PreviousBalance:  previousBalance,
		RemainingBalance: doc.RemainingBalance,
		Status:           doc.Status,
	}
}

// PaymentRecordedEvent is published when a payment has been fully applied
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID       uuid.UUID       `json:"payment_id"`
	PaymentNumber   string          `json:"payment_number"`
	CounterpartyID  uuid.UUID       `json:"counterparty_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	UnappliedAmount decimal.Decimal `json:"unapplied_amount"`
	Allocations     int             `json:"allocations"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, payment.ID),
		PaymentID:       payment.ID,
		PaymentNumber:   payment.PaymentNumber,
		CounterpartyID:  payment.CounterpartyID,
		TotalAmount:     payment.TotalAmount,
		UnappliedAmount: payment.UnappliedAmount,
		Allocations:     len(payment.Allocations),
	}
}

// ReturnProcessedEvent is published when a return has been credited
type ReturnProcessedEvent struct {
	shared.BaseDomainEvent
	ReturnID       uuid.UUID       `json:"return_id"`
	ReturnNumber   string          `json:"return_number"`
	DocumentID     uuid.UUID       `json:"document_id"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	SettlementType SettlementType  `json:"settlement_type"`
}

// NewReturnProcessedEvent creates a new ReturnProcessedEvent
func NewReturnProcessedEvent(ret *Return) *ReturnProcessedEvent {
	return &ReturnProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnProcessed, AggregateTypeReturn, ret.ID),
		ReturnID:        ret.ID,
		ReturnNumber:    ret.ReturnNumber,
		DocumentID:      ret.DocumentID,
		CreditAmount:    ret.CreditAmount,
		SettlementType:  ret.SettlementType,
	}
}
