package cache

import (
	"context"
	"sync"
	"time"

	appledger "github.com/ironstore/backend/internal/application/ledger"
	"github.com/google/uuid"
	"github.com/ironstore/backend/internal/domain/ledger"
)

// balanceEntry represents a cached projection with expiration
type balanceEntry struct {
	projection ledger.BalanceProjection
	expiresAt  time.Time
}

// InMemoryBalanceCache implements BalanceCache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryBalanceCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]balanceEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryBalanceCache creates a new in-memory balance cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryBalanceCache(ttl time.Duration) *InMemoryBalanceCache {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	cache := &InMemoryBalanceCache{
		entries:  make(map[uuid.UUID]balanceEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached projection for a document, or false when absent
func (c *InMemoryBalanceCache) Get(ctx context.Context, documentID uuid.UUID) (*ledger.BalanceProjection, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[documentID]
	if !exists {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		return nil, false, nil // Expired, treat as a miss
	}

	projection := e.projection
	return &projection, true, nil
}

// Set stores the projection for a document
func (c *InMemoryBalanceCache) Set(ctx context.Context, projection *ledger.BalanceProjection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[projection.DocumentID] = balanceEntry{
		projection: *projection,
		expiresAt:  time.Now().Add(c.ttl),
	}
	return nil
}

// Invalidate drops the cached projection for a document
func (c *InMemoryBalanceCache) Invalidate(ctx context.Context, documentID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, documentID)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryBalanceCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryBalanceCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryBalanceCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for documentID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, documentID)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryBalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryBalanceCache implements BalanceCache
var _ appledger.BalanceCache = (*InMemoryBalanceCache)(nil)
