package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root.
// RemainingBalance and Status are a cached projection of the ledger; the
// ledger_entries table is the source of truth.
type DocumentModel struct {
	AggregateModel
	DocumentNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type             ledger.DocumentType   `gorm:"type:varchar(20);not null;index"`
	CounterpartyID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	Lines            []DocumentLineModel   `gorm:"foreignKey:DocumentID;references:ID"`
	TotalAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	RemainingBalance decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	Status           ledger.DocumentStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	CreatedBy        string                `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *ledger.Document {
	doc := &ledger.Document{
		DocumentNumber:   m.DocumentNumber,
		Type:             m.Type,
		CounterpartyID:   m.CounterpartyID,
		TotalAmount:      m.TotalAmount,
		RemainingBalance: m.RemainingBalance,
		Status:           m.Status,
		CreatedBy:        m.CreatedBy,
		Lines:            make([]ledger.DocumentLine, len(m.Lines)),
	}
	m.PopulateAggregateRoot(&doc.BaseAggregateRoot)
	for i, line := range m.Lines {
		doc.Lines[i] = *line.ToDomain()
	}
	return doc
}

// FromDomain populates the persistence model from a domain Document.
func (m *DocumentModel) FromDomain(doc *ledger.Document) {
	m.FromDomainAggregateRoot(doc.BaseAggregateRoot)
	m.DocumentNumber = doc.DocumentNumber
	m.Type = doc.Type
	m.CounterpartyID = doc.CounterpartyID
	m.TotalAmount = doc.TotalAmount
	m.RemainingBalance = doc.RemainingBalance
	m.Status = doc.Status
	m.CreatedBy = doc.CreatedBy
	m.Lines = make([]DocumentLineModel, len(doc.Lines))
	for i, line := range doc.Lines {
		m.Lines[i] = *DocumentLineModelFromDomain(doc.ID, &line)
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(doc *ledger.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(doc)
	return m
}

// DocumentLineModel is the persistence model for one document line.
type DocumentLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// ToDomain converts the persistence model to a domain DocumentLine.
func (m *DocumentLineModel) ToDomain() *ledger.DocumentLine {
	return &ledger.DocumentLine{
		ID:          m.ID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
	}
}

// DocumentLineModelFromDomain creates a persistence model from a domain DocumentLine.
func DocumentLineModelFromDomain(documentID uuid.UUID, line *ledger.DocumentLine) *DocumentLineModel {
	return &DocumentLineModel{
		ID:          line.ID,
		DocumentID:  documentID,
		Description: line.Description,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		LineTotal:   line.LineTotal,
	}
}

// LedgerEntryModel is the persistence model for one immutable ledger entry.
// Rows are insert-only; the unique (document_id, sequence) index pins the
// append order per document.
type LedgerEntryModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	DocumentID    uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_doc_seq,priority:1"`
	Sequence      int64                `gorm:"not null;uniqueIndex:idx_ledger_doc_seq,priority:2"`
	Kind          ledger.EntryKind     `gorm:"type:varchar(20);not null;index"`
	SignedAmount  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ReferenceType ledger.ReferenceType `gorm:"type:varchar(20);not null"`
	ReferenceID   *uuid.UUID           `gorm:"type:uuid;index"`
	Memo          string               `gorm:"type:varchar(500)"`
	CreatedBy     string               `gorm:"type:varchar(100)"`
	CreatedAt     time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *ledger.LedgerEntry {
	return &ledger.LedgerEntry{
		ID:           m.ID,
		DocumentID:   m.DocumentID,
		Sequence:     m.Sequence,
		Kind:         m.Kind,
		SignedAmount: m.SignedAmount,
		Reference: ledger.EntryReference{
			Type: m.ReferenceType,
			ID:   m.ReferenceID,
		},
		Memo:      m.Memo,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(entry *ledger.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:            entry.ID,
		DocumentID:    entry.DocumentID,
		Sequence:      entry.Sequence,
		Kind:          entry.Kind,
		SignedAmount:  entry.SignedAmount,
		ReferenceType: entry.Reference.Type,
		ReferenceID:   entry.Reference.ID,
		Memo:          entry.Memo,
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     entry.CreatedAt,
	}
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	PaymentNumber   string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	CounterpartyID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	TotalAmount     decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Method          ledger.PaymentMethod     `gorm:"type:varchar(20);not null"`
	Reference       string                   `gorm:"type:varchar(200)"`
	Allocations     []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
	UnappliedAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	CreatedBy       string                   `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	p := &ledger.Payment{
		PaymentNumber:   m.PaymentNumber,
		CounterpartyID:  m.CounterpartyID,
		TotalAmount:     m.TotalAmount,
		Method:          m.Method,
		Reference:       m.Reference,
		UnappliedAmount: m.UnappliedAmount,
		CreatedBy:       m.CreatedBy,
		Allocations:     make([]ledger.Allocation, len(m.Allocations)),
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	for i, a := range m.Allocations {
		p.Allocations[i] = ledger.Allocation{
			DocumentID:     a.DocumentID,
			DocumentNumber: a.DocumentNumber,
			AppliedAmount:  a.AppliedAmount,
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.CounterpartyID = p.CounterpartyID
	m.TotalAmount = p.TotalAmount
	m.Method = p.Method
	m.Reference = p.Reference
	m.UnappliedAmount = p.UnappliedAmount
	m.CreatedBy = p.CreatedBy
	m.Allocations = make([]PaymentAllocationModel, len(p.Allocations))
	for i, a := range p.Allocations {
		m.Allocations[i] = PaymentAllocationModel{
			ID:             uuid.New(),
			PaymentID:      p.ID,
			Position:       i,
			DocumentID:     a.DocumentID,
			DocumentNumber: a.DocumentNumber,
			AppliedAmount:  a.AppliedAmount,
		}
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is one applied slice of a payment. Position keeps
// the allocation order stable across loads.
type PaymentAllocationModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null"`
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentNumber string          `gorm:"type:varchar(50);not null"`
	AppliedAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ReturnModel is the persistence model for the Return aggregate root.
type ReturnModel struct {
	AggregateModel
	ReturnNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	DocumentID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	Items          []ReturnItemModel     `gorm:"foreignKey:ReturnID;references:ID"`
	SettlementType ledger.SettlementType `gorm:"type:varchar(20);not null"`
	CreditAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CreatedBy      string                `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ReturnModel) TableName() string {
	return "returns"
}

// ToDomain converts the persistence model to a domain Return.
func (m *ReturnModel) ToDomain() *ledger.Return {
	ret := &ledger.Return{
		ReturnNumber:   m.ReturnNumber,
		DocumentID:     m.DocumentID,
		SettlementType: m.SettlementType,
		CreditAmount:   m.CreditAmount,
		CreatedBy:      m.CreatedBy,
		Items:          make([]ledger.ReturnItem, len(m.Items)),
	}
	m.PopulateAggregateRoot(&ret.BaseAggregateRoot)
	for i, item := range m.Items {
		ret.Items[i] = ledger.ReturnItem{
			ID:               item.ID,
			OriginalLineID:   item.OriginalLineID,
			ReturnedQuantity: item.ReturnedQuantity,
			UnitPrice:        item.UnitPrice,
			CreditAmount:     item.CreditAmount,
		}
	}
	return ret
}

// FromDomain populates the persistence model from a domain Return.
func (m *ReturnModel) FromDomain(ret *ledger.Return) {
	m.FromDomainAggregateRoot(ret.BaseAggregateRoot)
	m.ReturnNumber = ret.ReturnNumber
	m.DocumentID = ret.DocumentID
	m.SettlementType = ret.SettlementType
	m.CreditAmount = ret.CreditAmount
	m.CreatedBy = ret.CreatedBy
	m.Items = make([]ReturnItemModel, len(ret.Items))
	for i, item := range ret.Items {
		m.Items[i] = ReturnItemModel{
			ID:               item.ID,
			ReturnID:         ret.ID,
			OriginalLineID:   item.OriginalLineID,
			ReturnedQuantity: item.ReturnedQuantity,
			UnitPrice:        item.UnitPrice,
			CreditAmount:     item.CreditAmount,
		}
	}
}

// ReturnModelFromDomain creates a new persistence model from a domain Return.
func ReturnModelFromDomain(ret *ledger.Return) *ReturnModel {
	m := &ReturnModel{}
	m.FromDomain(ret)
	return m
}

// ReturnItemModel is one returned slice of an original document line.
type ReturnItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalLineID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreditAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ReturnItemModel) TableName() string {
	return "return_items"
}

// AuditNoteModel is the persistence model for one audit trail entry.
// Insert-only, written in the same transaction as the ledger mutation.
type AuditNoteModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	Operation   string     `gorm:"type:varchar(50);not null;index"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"`
	Actor       string     `gorm:"type:varchar(100);not null"`
	Note        string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditNoteModel) TableName() string {
	return "audit_notes"
}

// ToDomain converts the persistence model to a domain AuditNote.
func (m *AuditNoteModel) ToDomain() *ledger.AuditNote {
	return &ledger.AuditNote{
		ID:          m.ID,
		Operation:   m.Operation,
		DocumentID:  m.DocumentID,
		ReferenceID: m.ReferenceID,
		Actor:       m.Actor,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}

// AuditNoteModelFromDomain creates a persistence model from a domain AuditNote.
func AuditNoteModelFromDomain(note *ledger.AuditNote) *AuditNoteModel {
	return &AuditNoteModel{
		ID:          note.ID,
		Operation:   note.Operation,
		DocumentID:  note.DocumentID,
		ReferenceID: note.ReferenceID,
		Actor:       note.Actor,
		Note:        note.Note,
		CreatedAt:   note.CreatedAt,
	}
}
