package cache

import (
	"sync"

	"github.com/wisal-aid/coupon-service/internal/models"
)

// RoundContextCache keeps round context (template type, round number, dates)
// in process for the allocation hot path. Entries are invalidated whenever the
// round is updated or deleted.
type RoundContextCache struct {
	mu    sync.RWMutex
	store map[string]*models.RoundContext
}

func NewRoundContextCache() *RoundContextCache {
	return &RoundContextCache{
		store: make(map[string]*models.RoundContext),
	}
}

func (c *RoundContextCache) Get(roundID string) (*models.RoundContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rc, ok := c.store[roundID]
	return rc, ok
}

func (c *RoundContextCache) Set(roundID string, rc *models.RoundContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[roundID] = rc
}

func (c *RoundContextCache) Invalidate(roundID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, roundID)
}
