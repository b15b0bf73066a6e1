// Package store provides read access to historical price bars backed by a
// SQLite database, plus a CSV import path for feeding the database from
// exported kline files.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"crypto-backtest-go/internal/models"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// BarStore is the narrow read interface the engine depends on.
// Bars are returned ordered ascending by timestamp.
type BarStore interface {
	GetBars(symbol string, interval models.Interval, start, end time.Time) ([]models.PriceBar, error)
}

// SQLBarStore is the SQLite implementation of BarStore.
type SQLBarStore struct {
	db *sql.DB
}

// Open initializes the database connection and creates the schema if needed.
func Open(path string) (*SQLBarStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLBarStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	// One row per (symbol, timestamp, interval); upserts keep imports idempotent.
	createBarsTableSQL := `
	CREATE TABLE IF NOT EXISTS price_bars (
		symbol    TEXT    NOT NULL,
		interval  TEXT    NOT NULL,
		timestamp INTEGER NOT NULL,
		open      REAL    NOT NULL,
		high      REAL    NOT NULL,
		low       REAL    NOT NULL,
		close     REAL    NOT NULL,
		volume    REAL    NOT NULL,
		PRIMARY KEY (symbol, timestamp, interval)
	);`

	_, err := db.Exec(createBarsTableSQL)
	return err
}

// GetBars returns the bars for the symbol and interval within [start, end],
// ordered ascending by timestamp. The interval is validated against the
// whitelist before it parameterizes the query.
func (s *SQLBarStore) GetBars(symbol string, interval models.Interval, start, end time.Time) ([]models.PriceBar, error) {
	if !interval.Valid() {
		return nil, &models.InvalidIntervalError{Interval: interval}
	}

	query := `
	SELECT timestamp, open, high, low, close, volume
	FROM price_bars
	WHERE symbol = ? AND interval = ? AND timestamp >= ? AND timestamp <= ?
	ORDER BY timestamp ASC`

	rows, err := s.db.Query(query, symbol, string(interval), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var bar models.PriceBar
		var ts int64
		if err := rows.Scan(&ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar row: %w", err)
		}
		bar.Timestamp = time.UnixMilli(ts).UTC()
		bar.Interval = interval
		bars = append(bars, bar)
	}
	return bars, rows.Err()
}

// SaveBars upserts a batch of bars for the symbol inside one transaction.
func (s *SQLBarStore) SaveBars(symbol string, bars []models.PriceBar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO price_bars (symbol, interval, timestamp, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, timestamp, interval) DO UPDATE SET
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		volume = excluded.volume;`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, bar := range bars {
		if !bar.Interval.Valid() {
			return &models.InvalidIntervalError{Interval: bar.Interval}
		}
		if _, err := stmt.Exec(
			symbol, string(bar.Interval), bar.Timestamp.UnixMilli(),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		); err != nil {
			return fmt.Errorf("failed to insert bar at %s: %w", bar.Timestamp, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database handle.
func (s *SQLBarStore) Close() error {
	return s.db.Close()
}
