package cache

import (
	"context"

	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/ironstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BalanceInvalidationHandler drops cached balance projections when a
// document's balance changes. Events fire after the owning transaction
// commits, so dropping the key here means the next read recomputes from
// committed ledger state.
type BalanceInvalidationHandler struct {
	cache  appledger.BalanceCache
	logger *zap.Logger
}

// NewBalanceInvalidationHandler creates a new BalanceInvalidationHandler
func NewBalanceInvalidationHandler(cache appledger.BalanceCache, logger *zap.Logger) *BalanceInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *BalanceInvalidationHandler) EventTypes() []string {
	return []string{ledger.EventTypeBalanceChanged}
}

// Handle invalidates the cache entry for the event's document
func (h *BalanceInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*ledger.BalanceChangedEvent)
	if !ok {
		return nil
	}

	if err := h.cache.Invalidate(ctx, changed.DocumentID); err != nil {
		h.logger.Error("Failed to invalidate cached balance",
			zap.String("document_id", changed.DocumentID.String()),
			zap.String("document_number", changed.DocumentNumber),
			zap.Error(err))
		return err
	}

	h.logger.Debug("Invalidated cached balance",
		zap.String("document_id", changed.DocumentID.String()),
		zap.String("status", string(changed.Status)))
	return nil
}

// Ensure BalanceInvalidationHandler implements EventHandler
var _ shared.EventHandler = (*BalanceInvalidationHandler)(nil)
