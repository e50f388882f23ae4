package dto

import (
	"time"

	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// --- Requests ---

// DocumentLineRequest is one line of a new document
type DocumentLineRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateDocumentRequest creates an invoice or vendor bill
type CreateDocumentRequest struct {
	Type           string                `json:"type" binding:"required,oneof=invoice vendor_bill"`
	CounterpartyID string                `json:"counterparty_id" binding:"required,uuid"`
	Lines          []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ApplyPaymentRequest records a payment, targeted or FIFO
type ApplyPaymentRequest struct {
	CounterpartyID   string          `json:"counterparty_id" binding:"required,uuid"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	DocumentID       *string         `json:"document_id" binding:"omitempty,uuid"`
	Method           string          `json:"method" binding:"required,oneof=cash bank_transfer cheque card"`
	Reference        string          `json:"reference" binding:"max=200"`
	AllowOverpayment bool            `json:"allow_overpayment"`
	UseCredit        bool            `json:"use_credit"`
}

// ReturnItemRequest is one requested return line
type ReturnItemRequest struct {
	OriginalLineID   string          `json:"original_line_id" binding:"required,uuid"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity" binding:"required"`
}

// ProcessReturnRequest credits returned quantity back against a document
type ProcessReturnRequest struct {
	DocumentID     string              `json:"document_id" binding:"required,uuid"`
	Items          []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	SettlementType string              `json:"settlement_type" binding:"required,oneof=credit refund"`
}

// RecordAdjustmentRequest appends one signed adjustment entry
type RecordAdjustmentRequest struct {
	SignedAmount decimal.Decimal `json:"signed_amount" binding:"required"`
	Memo         string          `json:"memo" binding:"required,max=500"`
}

// CreateCounterpartyRequest creates a customer or vendor
type CreateCounterpartyRequest struct {
	Type    string `json:"type" binding:"required,oneof=customer vendor"`
	Code    string `json:"code" binding:"max=50"`
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

// --- Responses ---

// DocumentLineResponse is one line of a document
type DocumentLineResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentResponse is a document with its cached balance
type DocumentResponse struct {
	ID               string                 `json:"id"`
	DocumentNumber   string                 `json:"document_number"`
	Type             string                 `json:"type"`
	CounterpartyID   string                 `json:"counterparty_id"`
	Lines            []DocumentLineResponse `json:"lines,omitempty"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	RemainingBalance decimal.Decimal        `json:"remaining_balance"`
	Status           string                 `json:"status"`
	CreatedBy        string                 `json:"created_by"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// DocumentFromDomain maps a domain document to its response
func DocumentFromDomain(doc *ledger.Document) DocumentResponse {
	lines := make([]DocumentLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		lines[i] = DocumentLineResponse{
			ID:          line.ID.String(),
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		}
	}
	return DocumentResponse{
		ID:               doc.ID.String(),
		DocumentNumber:   doc.DocumentNumber,
		Type:             doc.Type.String(),
		CounterpartyID:   doc.CounterpartyID.String(),
		Lines:            lines,
		TotalAmount:      doc.TotalAmount,
		RemainingBalance: doc.RemainingBalance,
		Status:           doc.Status.String(),
		CreatedBy:        doc.CreatedBy,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

// LedgerEntryResponse is one immutable ledger entry
type LedgerEntryResponse struct {
	ID            string          `json:"id"`
	DocumentID    string          `json:"document_id"`
	Sequence      int64           `json:"sequence"`
	Kind          string          `json:"kind"`
	SignedAmount  decimal.Decimal `json:"signed_amount"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	Memo          string          `json:"memo,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LedgerEntryFromDomain maps a domain ledger entry to its response
func LedgerEntryFromDomain(entry *ledger.LedgerEntry) LedgerEntryResponse {
	var referenceID *string
	if entry.Reference.ID != nil {
		id := entry.Reference.ID.String()
		referenceID = &id
	}
	return LedgerEntryResponse{
		ID:            entry.ID.String(),
		DocumentID:    entry.DocumentID.String(),
		Sequence:      entry.Sequence,
		Kind:          entry.Kind.String(),
		SignedAmount:  entry.SignedAmount,
		ReferenceType: string(entry.Reference.Type),
		ReferenceID:   referenceID,
		Memo:          entry.Memo,
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     entry.CreatedAt,
	}
}

// BalanceResponse is a balance projection
type BalanceResponse struct {
	DocumentID    string          `json:"document_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Remaining     decimal.Decimal `json:"remaining"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalCredited decimal.Decimal `json:"total_credited"`
	Status        string          `json:"status"`
}

// BalanceFromProjection maps a balance projection to its response
func BalanceFromProjection(p *ledger.BalanceProjection) BalanceResponse {
	return BalanceResponse{
		DocumentID:    p.DocumentID.String(),
		TotalAmount:   p.TotalAmount,
		Remaining:     p.Remaining,
		TotalPaid:     p.TotalPaid,
		TotalCredited: p.TotalCredited,
		Status:        p.Status.String(),
	}
}

// AllocationResponse is one applied slice of a payment
type AllocationResponse struct {
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	AppliedAmount  decimal.Decimal `json:"applied_amount"`
}

// PaymentResultResponse reports how a payment was applied
type PaymentResultResponse struct {
	PaymentID       string               `json:"payment_id"`
	PaymentNumber   string               `json:"payment_number"`
	Allocations     []AllocationResponse `json:"allocations"`
	UnappliedAmount decimal.Decimal      `json:"unapplied_amount"`
	NewBalance      *BalanceResponse     `json:"new_balance,omitempty"`
}

// ReturnResultResponse reports a processed return
type ReturnResultResponse struct {
	ReturnID     string          `json:"return_id"`
	ReturnNumber string          `json:"return_number"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	NewBalance   BalanceResponse `json:"new_balance"`
}

// AdjustmentResultResponse reports a recorded adjustment
type AdjustmentResultResponse struct {
	EntryID    string          `json:"entry_id"`
	NewBalance BalanceResponse `json:"new_balance"`
}

// AuditNoteResponse is one audit trail record
type AuditNoteResponse struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	DocumentID  *string   `json:"document_id,omitempty"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	Actor       string    `json:"actor"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditNoteFromDomain maps a domain audit note to its response
func AuditNoteFromDomain(note *ledger.AuditNote) AuditNoteResponse {
	resp := AuditNoteResponse{
		ID:        note.ID.String(),
		Operation: note.Operation,
		Actor:     note.Actor,
		Note:      note.Note,
		CreatedAt: note.CreatedAt,
	}
	if note.DocumentID != nil {
		id := note.DocumentID.String()
		resp.DocumentID = &id
	}
	if note.ReferenceID != nil {
		id := note.ReferenceID.String()
		resp.ReferenceID = &id
	}
	return resp
}

// CounterpartyResponse is a customer or vendor
type CounterpartyResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code,omitempty"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CounterpartyFromDomain maps a domain counterparty to its response
func CounterpartyFromDomain(cp *partner.Counterparty) CounterpartyResponse {
	return CounterpartyResponse{
		ID:            cp.ID.String(),
		Code:          cp.Code,
		Name:          cp.Name,
		Type:          cp.Type.String(),
		Phone:         cp.Phone,
		Address:       cp.Address,
		CreditBalance: cp.CreditBalance,
		CreatedAt:     cp.CreatedAt,
		UpdatedAt:     cp.UpdatedAt,
	}
}

// CreditTransactionResponse is one immutable credit movement
type CreditTransactionResponse struct {
	ID              string          `json:"id"`
	CounterpartyID  string          `json:"counterparty_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	SourceType      string          `json:"source_type"`
	SourceID        *string         `json:"source_id,omitempty"`
	Remark          string          `json:"remark,omitempty"`
	Actor           string          `json:"actor,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// CreditTransactionFromDomain maps a domain credit transaction to its response
func CreditTransactionFromDomain(tx *partner.CreditTransaction) CreditTransactionResponse {
	var sourceID *string
	if tx.SourceID != nil {
		id := tx.SourceID.String()
		sourceID = &id
	}
	return CreditTransactionResponse{
		ID:              tx.ID.String(),
		CounterpartyID:  tx.CounterpartyID.String(),
		TransactionType: tx.TransactionType.String(),
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		SourceType:      tx.SourceType.String(),
		SourceID:        sourceID,
		Remark:          tx.Remark,
		Actor:           tx.Actor,
		TransactionDate: tx.TransactionDate,
	}
}
