package ledger

import (
	"context"

	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
)

// TransactionState tags the lifecycle of an atomic scope. Transitions are
// guarded: a scope can only be used while active, and commit/rollback out
// of order fails loudly instead of being silently ignored.
type TransactionState string

const (
	TransactionStateNone       TransactionState = "none"
	TransactionStateActive     TransactionState = "active"
	TransactionStateCommitted  TransactionState = "committed"
	TransactionStateRolledBack TransactionState = "rolledBack"
)

// ErrTransactionNotActive is returned when a scope is used outside its
// active window (after commit or rollback)
var ErrTransactionNotActive = shared.NewDomainError("TRANSACTION_NOT_ACTIVE",
	"Transactional scope is no longer active")

// TransactionScope is the Transaction Coordinator: the only component
// permitted to open an atomic scope over the ledger. Every write sequence
// (balance read, ledger append, cached balance refresh, audit note) runs
// entirely inside one Execute call and commits or rolls back as a unit.
type TransactionScope interface {
	// Execute runs fn inside a database transaction. Any error returned
	// by fn rolls back every staged write and is returned unchanged;
	// a nil return commits them all.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories is the typed transactional handle passed to
// the function running inside an atomic scope. It exposes only the ledger
// repositories, so callers cannot reach around the coordinator, and it is
// itself a TransactionScope: opening a scope on it nests via savepoint
// instead of silently reusing or clobbering the outer transaction.
type TransactionalRepositories interface {
	TransactionScope

	// Documents returns the document repository scoped to the current transaction
	Documents() ledger.DocumentRepository
	// Entries returns the append-only ledger entry repository scoped to the current transaction
	Entries() ledger.LedgerEntryRepository
	// Payments returns the payment repository scoped to the current transaction
	Payments() ledger.PaymentRepository
	// Returns returns the return repository scoped to the current transaction
	Returns() ledger.ReturnRepository
	// Counterparties returns the counterparty repository scoped to the current transaction
	Counterparties() partner.CounterpartyRepository
	// CreditTransactions returns the credit transaction repository scoped to the current transaction
	CreditTransactions() partner.CreditTransactionRepository
	// AuditTrail returns the audit trail repository scoped to the current transaction
	AuditTrail() ledger.AuditTrailRepository

	// State reports the current lifecycle tag of this scope
	State() TransactionState
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests and for callers that bring their own atomicity.
type NoOpTransactionScope struct {
	documents      ledger.DocumentRepository
	entries        ledger.LedgerEntryRepository
	payments       ledger.PaymentRepository
	returns        ledger.ReturnRepository
	counterparties partner.CounterpartyRepository
	creditTxs      partner.CreditTransactionRepository
	auditTrail     ledger.AuditTrailRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	documents ledger.DocumentRepository,
	entries ledger.LedgerEntryRepository,
	payments ledger.PaymentRepository,
	returns ledger.ReturnRepository,
	counterparties partner.CounterpartyRepository,
	creditTxs partner.CreditTransactionRepository,
	auditTrail ledger.AuditTrailRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		documents:      documents,
		entries:        entries,
		payments:       payments,
		returns:        returns,
		counterparties: counterparties,
		creditTxs:      creditTxs,
		auditTrail:     auditTrail,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Documents returns the document repository
func (s *NoOpTransactionScope) Documents() ledger.DocumentRepository { return s.documents }

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.LedgerEntryRepository { return s.entries }

// Payments returns the payment repository
func (s *NoOpTransactionScope) Payments() ledger.PaymentRepository { return s.payments }

// Returns returns the return repository
func (s *NoOpTransactionScope) Returns() ledger.ReturnRepository { return s.returns }

// Counterparties returns the counterparty repository
func (s *NoOpTransactionScope) Counterparties() partner.CounterpartyRepository {
	return s.counterparties
}

// CreditTransactions returns the credit transaction repository
func (s *NoOpTransactionScope) CreditTransactions() partner.CreditTransactionRepository {
	return s.creditTxs
}

// AuditTrail returns the audit trail repository
func (s *NoOpTransactionScope) AuditTrail() ledger.AuditTrailRepository { return s.auditTrail }

// State always reports active; the no-op scope has no real lifecycle
func (s *NoOpTransactionScope) State() TransactionState { return TransactionStateActive }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
