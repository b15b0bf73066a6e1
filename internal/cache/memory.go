package cache

import (
	"sync"

	"crypto-backtest-go/internal/models"
)

// memoryCache is a process-local ResultCache, useful when no cache path is
// configured and as a building block for tests.
type memoryCache struct {
	mu      sync.RWMutex
	results map[string]*models.BacktestResult
}

// NewMemoryCache creates an empty in-memory ResultCache.
func NewMemoryCache() ResultCache {
	return &memoryCache{results: make(map[string]*models.BacktestResult)}
}

func (c *memoryCache) Get(hash string) (*models.BacktestResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[hash]
	if !ok {
		return nil, nil
	}
	cpy := *result
	return &cpy, nil
}

func (c *memoryCache) Put(hash string, result *models.BacktestResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cpy := *result
	c.results[hash] = &cpy
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}
