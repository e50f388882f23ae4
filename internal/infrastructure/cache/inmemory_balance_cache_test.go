package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProjection(documentID uuid.UUID) *ledger.BalanceProjection {
	return &ledger.BalanceProjection{
		DocumentID:    documentID,
		TotalAmount:   decimal.NewFromInt(1000),
		Remaining:     decimal.NewFromInt(400),
		TotalPaid:     decimal.NewFromInt(600),
		TotalCredited: decimal.Zero,
		Status:        ledger.DocumentStatusPartial,
	}
}

func TestInMemoryBalanceCache_GetSet(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)
	defer cache.Close()

	ctx := context.Background()

	t.Run("misses on unknown document", func(t *testing.T) {
		projection, found, err := cache.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, projection)
	})

	t.Run("returns stored projection", func(t *testing.T) {
		documentID := uuid.New()
		stored := testProjection(documentID)

		require.NoError(t, cache.Set(ctx, stored))

		projection, found, err := cache.Get(ctx, documentID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, documentID, projection.DocumentID)
		assert.True(t, projection.Remaining.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, ledger.DocumentStatusPartial, projection.Status)
	})

	t.Run("set overwrites previous projection", func(t *testing.T) {
		documentID := uuid.New()
		first := testProjection(documentID)
		require.NoError(t, cache.Set(ctx, first))

		second := testProjection(documentID)
		second.Remaining = decimal.Zero
		second.TotalPaid = decimal.NewFromInt(1000)
		second.Status = ledger.DocumentStatusSettled
		require.NoError(t, cache.Set(ctx, second))

		projection, found, err := cache.Get(ctx, documentID)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, projection.Remaining.IsZero())
		assert.Equal(t, ledger.DocumentStatusSettled, projection.Status)
	})

	t.Run("returned projection is a copy", func(t *testing.T) {
		documentID := uuid.New()
		require.NoError(t, cache.Set(ctx, testProjection(documentID)))

		projection, found, err := cache.Get(ctx, documentID)
		require.NoError(t, err)
		require.True(t, found)

		// Mutating the returned value must not change the cached one
		projection.Remaining = decimal.NewFromInt(-999)

		again, found, err := cache.Get(ctx, documentID)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, again.Remaining.Equal(decimal.NewFromInt(400)))
	})
}

func TestInMemoryBalanceCache_Expiration(t *testing.T) {
	cache := NewInMemoryBalanceCache(10 * time.Millisecond)
	defer cache.Close()

	ctx := context.Background()
	documentID := uuid.New()

	require.NoError(t, cache.Set(ctx, testProjection(documentID)))

	_, found, err := cache.Get(ctx, documentID)
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	_, found, err = cache.Get(ctx, documentID)
	require.NoError(t, err)
	assert.False(t, found, "expired entry should be a miss")
}

func TestInMemoryBalanceCache_Invalidate(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)
	defer cache.Close()

	ctx := context.Background()

	t.Run("removes the cached projection", func(t *testing.T) {
		documentID := uuid.New()
		require.NoError(t, cache.Set(ctx, testProjection(documentID)))

		require.NoError(t, cache.Invalidate(ctx, documentID))

		_, found, err := cache.Get(ctx, documentID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("is a no-op for unknown documents", func(t *testing.T) {
		assert.NoError(t, cache.Invalidate(ctx, uuid.New()))
	})

	t.Run("leaves other documents untouched", func(t *testing.T) {
		keep := uuid.New()
		drop := uuid.New()
		require.NoError(t, cache.Set(ctx, testProjection(keep)))
		require.NoError(t, cache.Set(ctx, testProjection(drop)))

		require.NoError(t, cache.Invalidate(ctx, drop))

		_, found, err := cache.Get(ctx, keep)
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestInMemoryBalanceCache_Cleanup(t *testing.T) {
	cache := NewInMemoryBalanceCache(5 * time.Millisecond)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Set(ctx, testProjection(uuid.New())))
	}
	assert.Equal(t, 3, cache.Size())

	time.Sleep(10 * time.Millisecond)
	cache.cleanup()

	assert.Equal(t, 0, cache.Size())
}

func TestInMemoryBalanceCache_CloseIsIdempotent(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)
	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}
