package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
)

// BalanceCache is a read-through cache over balance projections. A cache
// entry must always equal the projection; invalidation is driven by the
// balance-changed events emitted at the transaction boundary, so a stale
// read can only ever predate an in-flight commit.
type BalanceCache interface {
	// Get returns the cached projection for a document, or false when absent
	Get(ctx context.Context, documentID uuid.UUID) (*ledger.BalanceProjection, bool, error)
	// Set stores the projection for a document
	Set(ctx context.Context, projection *ledger.BalanceProjection) error
	// Invalidate drops the cached projection for a document
	Invalidate(ctx context.Context, documentID uuid.UUID) error
}

// NoOpBalanceCache disables caching; every read computes the projection
type NoOpBalanceCache struct{}

// NewNoOpBalanceCache creates a cache that never hits
func NewNoOpBalanceCache() *NoOpBalanceCache { return &NoOpBalanceCache{} }

// Get always misses
func (c *NoOpBalanceCache) Get(context.Context, uuid.UUID) (*ledger.BalanceProjection, bool, error) {
	return nil, false, nil
}

// Set does nothing
func (c *NoOpBalanceCache) Set(context.Context, *ledger.BalanceProjection) error { return nil }

// Invalidate does nothing
func (c *NoOpBalanceCache) Invalidate(context.Context, uuid.UUID) error { return nil }

var _ BalanceCache = (*NoOpBalanceCache)(nil)
