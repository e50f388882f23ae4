package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreditTransactionType represents the type of credit balance movement
type CreditTransactionType string

const (
	// CreditTransactionTypeGrant represents credit granted to the counterparty (balance increase)
	CreditTransactionTypeGrant CreditTransactionType = "GRANT"
	// CreditTransactionTypeConsume represents credit spent against a document (balance decrease)
	CreditTransactionTypeConsume CreditTransactionType = "CONSUME"
	// CreditTransactionTypeAdjustment represents a manual correction (increase or decrease)
	CreditTransactionTypeAdjustment CreditTransactionType = "ADJUSTMENT"
)

// String returns the string representation of CreditTransactionType
func (t CreditTransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t CreditTransactionType) IsValid() bool {
	switch t {
	case CreditTransactionTypeGrant, CreditTransactionTypeConsume, CreditTransactionTypeAdjustment:
		return true
	}
	return false
}

// CreditSourceType represents the source of a credit balance movement
type CreditSourceType string

const (
	// CreditSourceTypePayment represents credit from an overpaid or unapplied payment
	CreditSourceTypePayment CreditSourceType = "PAYMENT"
	// CreditSourceTypeReturn represents credit from a refund-settled return
	CreditSourceTypeReturn CreditSourceType = "RETURN"
	// CreditSourceTypeManual represents a manual adjustment
	CreditSourceTypeManual CreditSourceType = "MANUAL"
)

// String returns the string representation of CreditSourceType
func (s CreditSourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s CreditSourceType) IsValid() bool {
	switch s {
	case CreditSourceTypePayment, CreditSourceTypeReturn, CreditSourceTypeManual:
		return true
	}
	return false
}

// CreditTransaction is an immutable record of one advance-credit balance
// change. Once created it is never modified; corrections are new
// transactions.
type CreditTransaction struct {
	shared.BaseEntity
	CounterpartyID  uuid.UUID
	TransactionType CreditTransactionType
	Amount          decimal.Decimal // always positive, direction determined by type
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	SourceType      CreditSourceType
	SourceID        *uuid.UUID
	Remark          string
	Actor           string
	TransactionDate time.Time
}

// NewCreditTransaction creates a new credit transaction
func NewCreditTransaction(
	counterpartyID uuid.UUID,
	txType CreditTransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	sourceType CreditSourceType,
) (*CreditTransaction, error) {
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid credit transaction type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if balanceBefore.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance before cannot be negative")
	}
	if balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance after cannot be negative")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}

	return &CreditTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		CounterpartyID:  counterpartyID,
		TransactionType: txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		SourceType:      sourceType,
		TransactionDate: time.Now(),
	}, nil
}

// WithSourceID sets the source document ID for the transaction
func (t *CreditTransaction) WithSourceID(sourceID uuid.UUID) *CreditTransaction {
	t.SourceID = &sourceID
	return t
}

// WithRemark sets the remark for the transaction
func (t *CreditTransaction) WithRemark(remark string) *CreditTransaction {
	t.Remark = remark
	return t
}

// WithActor sets who performed the operation
func (t *CreditTransaction) WithActor(actor string) *CreditTransaction {
	t.Actor = actor
	return t
}

// GetSignedAmount returns the amount with sign based on transaction type
func (t *CreditTransaction) GetSignedAmount() decimal.Decimal {
	switch t.TransactionType {
	case CreditTransactionTypeConsume:
		return t.Amount.Neg()
	case CreditTransactionTypeAdjustment:
		return t.BalanceAfter.Sub(t.BalanceBefore)
	default:
		return t.Amount
	}
}

// BalanceChange returns the net balance change
func (t *CreditTransaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// CreateCreditGrantTransaction creates a grant transaction
func CreateCreditGrantTransaction(
	counterpartyID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
	sourceType CreditSourceType,
) (*CreditTransaction, error) {
	balanceAfter := balanceBefore.Add(amount)
	return NewCreditTransaction(
		counterpartyID,
		CreditTransactionTypeGrant,
		amount,
		balanceBefore,
		balanceAfter,
		sourceType,
	)
}

// CreateCreditConsumeTransaction creates a consume transaction
func CreateCreditConsumeTransaction(
	counterpartyID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
	sourceType CreditSourceType,
) (*CreditTransaction, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.ErrInsufficientCredit
	}
	balanceAfter := balanceBefore.Sub(amount)
	return NewCreditTransaction(
		counterpartyID,
		CreditTransactionTypeConsume,
		amount,
		balanceBefore,
		balanceAfter,
		sourceType,
	)
}
