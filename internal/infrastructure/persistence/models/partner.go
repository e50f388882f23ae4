package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CounterpartyModel is the persistence model for the Counterparty aggregate root.
type CounterpartyModel struct {
	AggregateModel
	Code          string                   `gorm:"type:varchar(50);index"`
	Name          string                   `gorm:"type:varchar(200);not null;index"`
	Type          partner.CounterpartyType `gorm:"type:varchar(20);not null;index"`
	Phone         string                   `gorm:"type:varchar(50)"`
	Address       string                   `gorm:"type:varchar(500)"`
	CreditBalance decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	CreatedBy     string                   `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CounterpartyModel) TableName() string {
	return "counterparties"
}

// ToDomain converts the persistence model to a domain Counterparty.
func (m *CounterpartyModel) ToDomain() *partner.Counterparty {
	cp := &partner.Counterparty{
		Code:          m.Code,
		Name:          m.Name,
		Type:          m.Type,
		Phone:         m.Phone,
		Address:       m.Address,
		CreditBalance: m.CreditBalance,
		CreatedBy:     m.CreatedBy,
	}
	m.PopulateAggregateRoot(&cp.BaseAggregateRoot)
	return cp
}

// FromDomain populates the persistence model from a domain Counterparty.
func (m *CounterpartyModel) FromDomain(cp *partner.Counterparty) {
	m.FromDomainAggregateRoot(cp.BaseAggregateRoot)
	m.Code = cp.Code
	m.Name = cp.Name
	m.Type = cp.Type
	m.Phone = cp.Phone
	m.Address = cp.Address
	m.CreditBalance = cp.CreditBalance
	m.CreatedBy = cp.CreatedBy
}

// CounterpartyModelFromDomain creates a new persistence model from a domain Counterparty.
func CounterpartyModelFromDomain(cp *partner.Counterparty) *CounterpartyModel {
	m := &CounterpartyModel{}
	m.FromDomain(cp)
	return m
}

// CreditTransactionModel is the persistence model for one immutable
// advance-credit movement. Rows are insert-only.
type CreditTransactionModel struct {
	BaseModel
	CounterpartyID  uuid.UUID                     `gorm:"type:uuid;not null;index"`
	TransactionType partner.CreditTransactionType `gorm:"type:varchar(20);not null;index"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	SourceType      partner.CreditSourceType      `gorm:"type:varchar(20);not null;index"`
	SourceID        *uuid.UUID                    `gorm:"type:uuid;index"`
	Remark          string                        `gorm:"type:varchar(500)"`
	Actor           string                        `gorm:"type:varchar(100)"`
	TransactionDate time.Time                     `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CreditTransactionModel) TableName() string {
	return "credit_transactions"
}

// ToDomain converts the persistence model to a domain CreditTransaction.
func (m *CreditTransactionModel) ToDomain() *partner.CreditTransaction {
	return &partner.CreditTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CounterpartyID:  m.CounterpartyID,
		TransactionType: m.TransactionType,
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		Remark:          m.Remark,
		Actor:           m.Actor,
		TransactionDate: m.TransactionDate,
	}
}

// CreditTransactionModelFromDomain creates a persistence model from a domain CreditTransaction.
func CreditTransactionModelFromDomain(tx *partner.CreditTransaction) *CreditTransactionModel {
	m := &CreditTransactionModel{}
	m.FromDomainBaseEntity(tx.BaseEntity)
	m.CounterpartyID = tx.CounterpartyID
	m.TransactionType = tx.TransactionType
	m.Amount = tx.Amount
	m.BalanceBefore = tx.BalanceBefore
	m.BalanceAfter = tx.BalanceAfter
	m.SourceType = tx.SourceType
	m.SourceID = tx.SourceID
	m.Remark = tx.Remark
	m.Actor = tx.Actor
	m.TransactionDate = tx.TransactionDate
	return m
}
