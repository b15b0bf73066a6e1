package cache

import (
	"encoding/json"
	"errors"

	"crypto-backtest-go/internal/models"

	"github.com/dgraph-io/badger/v3"
)

// badgerCache is the BadgerDB implementation of the ResultCache.
// Results are stored as JSON values under their parameter hash, so the cache
// doubles as the persisted result store and survives process restarts.
type badgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) a BadgerDB database at the given path.
func NewBadgerCache(path string) (ResultCache, error) {
	opts := badger.DefaultOptions(path)
	// Badger's own logging is noisy; errors still surface from DB operations.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerCache{db: db}, nil
}

// Get returns the cached result for the hash, or (nil, nil) when absent.
func (c *badgerCache) Get(hash string) (*models.BacktestResult, error) {
	var result models.BacktestResult

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil // expected cache-miss case
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Put stores the result under its parameter hash.
func (c *badgerCache) Put(hash string, result *models.BacktestResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hash), data)
	})
}

// Close gracefully closes the underlying database.
func (c *badgerCache) Close() error {
	return c.db.Close()
}
