package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using ClickHouse.
type PriceBarStore struct {
	conn *Conn
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(conn *Conn) *PriceBarStore {
	return &PriceBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// GetByTimeRange retrieves bars for a ticker whose date falls within [start, end], ordered by date ASC.
// Dates are compared as calendar days in UTC.
func (s *PriceBarStore) GetByTimeRange(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	query := `
		SELECT ticker, date, open, high, low, close, adj_close, volume
		FROM daily_bars FINAL
		WHERE ticker = ? AND date >= toDate(?) AND date <= toDate(?)
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// GetTickers lists tickers with at least one bar, sorted.
func (s *PriceBarStore) GetTickers(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT ticker FROM daily_bars ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickers: %w", err)
	}

	return tickers, nil
}

// chRows is the subset of driver.Rows used by scanners.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPriceBars scans multiple rows.
func scanPriceBars(rows chRows) ([]*domain.PriceBar, error) {
	bars := make([]*domain.PriceBar, 0)

	for rows.Next() {
		var b domain.PriceBar
		err := rows.Scan(
			&b.Ticker, &b.Date,
			&b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily bar row: %w", err)
		}
		b.Date = b.Date.UTC()
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily bar rows: %w", err)
	}

	return bars, nil
}
