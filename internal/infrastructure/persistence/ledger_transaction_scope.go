package persistence

import (
	"context"

	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements the transaction coordinator on top
// of GORM transactions. Every Execute call opens a fresh database
// transaction; the handle passed to fn carries an explicit lifecycle tag
// so misuse (nested opens, use after commit) fails loudly instead of
// silently reusing a connection.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. An error from fn rolls
// back everything and is returned unchanged; nil commits.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	repos := &ledgerTxRepositories{state: appledger.TransactionStateNone}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos.tx = tx
		repos.state = appledger.TransactionStateActive
		return fn(repos)
	})
	if err != nil {
		repos.state = appledger.TransactionStateRolledBack
		return err
	}
	repos.state = appledger.TransactionStateCommitted
	return nil
}

// ledgerTxRepositories is the transactional handle passed to the scope
// function. All repositories it returns share the same *gorm.DB
// transaction, and its own Execute nests via savepoint.
type ledgerTxRepositories struct {
	tx    *gorm.DB
	state appledger.TransactionState
}

// Execute opens a nested scope on the same transaction. GORM translates
// the inner Transaction call into a SAVEPOINT, so an inner failure rolls
// back only the inner writes while the outer transaction stays usable.
func (r *ledgerTxRepositories) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	if r.state != appledger.TransactionStateActive {
		return appledger.ErrTransactionNotActive
	}
	nested := &ledgerTxRepositories{state: appledger.TransactionStateNone}
	err := r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nested.tx = tx
		nested.state = appledger.TransactionStateActive
		return fn(nested)
	})
	if err != nil {
		nested.state = appledger.TransactionStateRolledBack
		return err
	}
	nested.state = appledger.TransactionStateCommitted
	return nil
}

// State reports the current lifecycle tag of this scope
func (r *ledgerTxRepositories) State() appledger.TransactionState {
	return r.state
}

// Documents returns the document repository scoped to the current transaction
func (r *ledgerTxRepositories) Documents() ledger.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

// Entries returns the ledger entry repository scoped to the current transaction
func (r *ledgerTxRepositories) Entries() ledger.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction
func (r *ledgerTxRepositories) Payments() ledger.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Returns returns the return repository scoped to the current transaction
func (r *ledgerTxRepositories) Returns() ledger.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

// Counterparties returns the counterparty repository scoped to the current transaction
func (r *ledgerTxRepositories) Counterparties() partner.CounterpartyRepository {
	return NewGormCounterpartyRepository(r.tx)
}

// CreditTransactions returns the credit transaction repository scoped to the current transaction
func (r *ledgerTxRepositories) CreditTransactions() partner.CreditTransactionRepository {
	return NewGormCreditTransactionRepository(r.tx)
}

// AuditTrail returns the audit trail repository scoped to the current transaction
func (r *ledgerTxRepositories) AuditTrail() ledger.AuditTrailRepository {
	return NewGormAuditTrailRepository(r.tx)
}

// Ensure GormLedgerTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)

// Ensure ledgerTxRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*ledgerTxRepositories)(nil)
