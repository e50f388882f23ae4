package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/partner"
	"github.com/ironstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateCounterpartyInput carries a new customer or vendor
type CreateCounterpartyInput struct {
	Type    partner.CounterpartyType
	Code    string
	Name    string
	Phone   string
	Address string
	Actor   string
}

// CounterpartyService manages customers and vendors and exposes their
// advance-credit history
type CounterpartyService struct {
	counterparties partner.CounterpartyRepository
	creditTxs      partner.CreditTransactionRepository
	events         shared.EventPublisher
	logger         *zap.Logger
}

// NewCounterpartyService creates a new counterparty service
func NewCounterpartyService(
	counterparties partner.CounterpartyRepository,
	creditTxs partner.CreditTransactionRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *CounterpartyService {
	return &CounterpartyService{
		counterparties: counterparties,
		creditTxs:      creditTxs,
		events:         events,
		logger:         logger,
	}
}

// CreateCounterparty creates a counterparty with zero credit
func (s *CounterpartyService) CreateCounterparty(ctx context.Context, input CreateCounterpartyInput) (*partner.Counterparty, error) {
	cp, err := partner.NewCounterparty(input.Type, input.Code, input.Name, input.Actor)
	if err != nil {
		return nil, err
	}
	cp.WithContact(input.Phone, input.Address)

	if err := s.counterparties.Save(ctx, cp); err != nil {
		return nil, err
	}

	events := cp.GetDomainEvents()
	cp.ClearDomainEvents()
	if s.events != nil && len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
	s.logger.Info("counterparty created",
		zap.String("name", cp.Name),
		zap.String("type", cp.Type.String()),
	)
	return cp, nil
}

// GetCounterparty returns a counterparty by id
func (s *CounterpartyService) GetCounterparty(ctx context.Context, id uuid.UUID) (*partner.Counterparty, error) {
	cp, err := s.counterparties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("COUNTERPARTY_NOT_FOUND", "Counterparty does not exist")
		}
		return nil, err
	}
	return cp, nil
}

// ListCounterparties returns counterparties matching the filter
func (s *CounterpartyService) ListCounterparties(ctx context.Context, filter shared.Filter) (*shared.Paginated[partner.Counterparty], error) {
	cps, total, err := s.counterparties.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(cps, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CreditHistory returns the immutable credit movements of a counterparty
func (s *CounterpartyService) CreditHistory(ctx context.Context, counterpartyID uuid.UUID, filter shared.Filter) (*shared.Paginated[partner.CreditTransaction], error) {
	if _, err := s.GetCounterparty(ctx, counterpartyID); err != nil {
		return nil, err
	}
	txs, total, err := s.creditTxs.FindByCounterparty(ctx, counterpartyID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(txs, total, filter.Page, filter.PageSize)
	return &page, nil
}
