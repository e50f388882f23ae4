package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared"
)

// CounterpartyRepository provides access to counterparties
type CounterpartyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Counterparty, error)
	// FindByIDForUpdate finds a counterparty and takes a row lock; used
	// when granting or consuming credit inside a transactional scope
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Counterparty, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Counterparty, int64, error)
	Save(ctx context.Context, cp *Counterparty) error
	// SaveWithLock persists an existing counterparty with optimistic locking
	SaveWithLock(ctx context.Context, cp *Counterparty) error
}

// CreditTransactionRepository stores immutable credit movements
type CreditTransactionRepository interface {
	Save(ctx context.Context, tx *CreditTransaction) error
	FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, filter shared.Filter) ([]CreditTransaction, int64, error)
}
