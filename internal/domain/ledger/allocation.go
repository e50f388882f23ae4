package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationTarget is one outstanding document considered by the allocator
type AllocationTarget struct {
	DocumentID       uuid.UUID
	DocumentNumber   string
	RemainingBalance decimal.Decimal
	CreatedAt        time.Time
}

// Allocation is one slice of a payment applied to a document, recorded in
// application order
type Allocation struct {
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	AppliedAmount  decimal.Decimal `json:"applied_amount"`
}

// AllocationOutcome is the complete result of one allocation pass.
// Invariant: TotalAllocated + Unapplied equals the amount passed in.
type AllocationOutcome struct {
	Allocations      []Allocation
	TotalAllocated   decimal.Decimal
	Unapplied        decimal.Decimal
	FullyAllocated   bool
	DocumentsSettled []uuid.UUID
	DocumentsPartial []uuid.UUID
}

// FIFOAllocationStrategy distributes one payment across a counterparty's
// outstanding documents oldest-first: created_at ascending, document id
// ascending as a deterministic tiebreak. The walk is a single pass so the
// conservation invariant holds by construction.
type FIFOAllocationStrategy struct{}

// NewFIFOAllocationStrategy creates a new FIFO allocation strategy
func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{}
}

// Allocate walks the targets oldest-first, applying as much of the
// remaining amount as each document's balance requires, until the payment
// is exhausted or documents run out. Leftover is reported as Unapplied,
// never as an error.
func (s *FIFOAllocationStrategy) Allocate(amount valueobject.Money, targets []AllocationTarget) (*AllocationOutcome, error) {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, NewInvalidAmountError("Allocation amount must be positive")
	}

	sorted := make([]AllocationTarget, len(targets))
	copy(sorted, targets)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return strings.Compare(sorted[i].DocumentID.String(), sorted[j].DocumentID.String()) < 0
	})

	allocations := make([]Allocation, 0, len(sorted))
	settled := make([]uuid.UUID, 0)
	partial := make([]uuid.UUID, 0)
	remaining := amount.Amount()
	totalAllocated := decimal.Zero

	for _, target := range sorted {
		if remaining.IsZero() {
			break
		}
		if target.RemainingBalance.LessThanOrEqual(decimal.Zero) {
			continue
		}

		applied := decimal.Min(remaining, target.RemainingBalance)

		allocations = append(allocations, Allocation{
			DocumentID:     target.DocumentID,
			DocumentNumber: target.DocumentNumber,
			AppliedAmount:  applied,
		})

		totalAllocated = totalAllocated.Add(applied)
		remaining = remaining.Sub(applied)

		if applied.GreaterThanOrEqual(target.RemainingBalance) {
			settled = append(settled, target.DocumentID)
		} else {
			partial = append(partial, target.DocumentID)
		}
	}

	return &AllocationOutcome{
		Allocations:      allocations,
		TotalAllocated:   totalAllocated,
		Unapplied:        remaining,
		FullyAllocated:   remaining.IsZero(),
		DocumentsSettled: settled,
		DocumentsPartial: partial,
	}, nil
}
