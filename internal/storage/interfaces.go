package storage

import (
	"context"
	"time"

	"sentiment-lab/internal/domain"
)

// TextRecordStore provides read access to text_records storage.
type TextRecordStore interface {
	// GetAll retrieves all records, ordered by timestamp ASC, id ASC.
	GetAll(ctx context.Context) ([]*domain.TextRecord, error)

	// GetByTimeRange retrieves records with timestamp within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TextRecord, error)

	// GetGlobalTimeRange returns the earliest and latest record timestamps.
	// Returns ErrNotFound if the store is empty.
	GetGlobalTimeRange(ctx context.Context) (start, end time.Time, err error)
}

// PriceBarStore provides read access to daily_bars storage.
type PriceBarStore interface {
	// GetByTimeRange retrieves bars for a ticker within [start, end] (inclusive), ordered by date ASC.
	GetByTimeRange(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error)

	// GetTickers lists the tickers that have at least one bar.
	GetTickers(ctx context.Context) ([]string, error)
}
