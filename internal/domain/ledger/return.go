package ledger

import (
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SettlementType is how a return's credit is settled
type SettlementType string

const (
	SettlementTypeCredit SettlementType = "credit" // credited against the document balance
	SettlementTypeRefund SettlementType = "refund" // paid back in cash
)

// IsValid checks if the settlement type is valid
func (t SettlementType) IsValid() bool {
	return t == SettlementTypeCredit || t == SettlementTypeRefund
}

// String returns the string representation
func (t SettlementType) String() string {
	return string(t)
}

// ReturnItem credits back quantity from one original document line
type ReturnItem struct {
	ID               uuid.UUID       `json:"id"`
	OriginalLineID   uuid.UUID       `json:"original_line_id"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	CreditAmount     decimal.Decimal `json:"credit_amount"`
}

// NewReturnItem creates a return item and computes its credit value
func NewReturnItem(originalLineID uuid.UUID, returnedQuantity, unitPrice decimal.Decimal) (*ReturnItem, error) {
	if originalLineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINE", "Original line ID is required")
	}
	if returnedQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Returned quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &ReturnItem{
		ID:               uuid.New(),
		OriginalLineID:   originalLineID,
		ReturnedQuantity: returnedQuantity,
		UnitPrice:        unitPrice,
		CreditAmount:     returnedQuantity.Mul(unitPrice),
	}, nil
}

// ValidateReturnable enforces the per-line bound: the requested quantity
// cannot exceed the original quantity minus what prior returns already
// took from the same line.
func ValidateReturnable(lineID uuid.UUID, requested, originalQuantity, alreadyReturned decimal.Decimal) error {
	returnable := originalQuantity.Sub(alreadyReturned)
	if requested.GreaterThan(returnable) {
		return NewOverReturnError(lineID, requested, returnable)
	}
	return nil
}

// Return is a validated request to credit back previously invoiced
// quantity. CreditAmount is derived from the items and feeds one negative
// return_credit ledger entry.
type Return struct {
	shared.BaseAggregateRoot
	ReturnNumber   string
	DocumentID     uuid.UUID
	Items          []ReturnItem
	SettlementType SettlementType
	CreditAmount   decimal.Decimal
	CreatedBy      string
}

// NewReturn creates a return over validated items
func NewReturn(documentID uuid.UUID, returnNumber string, items []ReturnItem, settlementType SettlementType, actor string) (*Return, error) {
	if documentID == uuid.Nil {
		return nil, NewDocumentNotFoundError(documentID)
	}
	if !settlementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT_TYPE", "Settlement type must be credit or refund")
	}
	if len(items) == 0 {
		return nil, ErrEmptyReturn
	}

	credit := decimal.Zero
	for _, item := range items {
		credit = credit.Add(item.CreditAmount)
	}
	if credit.LessThanOrEqual(decimal.Zero) {
		return nil, ErrEmptyReturn
	}

	return &Return{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		DocumentID:        documentID,
		Items:             items,
		SettlementType:    settlementType,
		CreditAmount:      credit,
		CreatedBy:         actor,
	}, nil
}

// QuantityForLine sums this return's quantity against one original line
func (r *Return) QuantityForLine(lineID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.OriginalLineID == lineID {
			total = total.Add(item.ReturnedQuantity)
		}
	}
	return total
}
