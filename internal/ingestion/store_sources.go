package ingestion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

// StoreRecordSource reads text records from a TextRecordStore.
type StoreRecordSource struct {
	store      storage.TextRecordStore
	start, end time.Time
}

// NewStoreRecordSource reads every record in store.
func NewStoreRecordSource(store storage.TextRecordStore) *StoreRecordSource {
	return &StoreRecordSource{store: store}
}

// WithWindow restricts the source to records within [start, end]. A zero
// bound is open and resolved against the store's own time range.
func (s *StoreRecordSource) WithWindow(start, end time.Time) *StoreRecordSource {
	s.start = start
	s.end = end
	return s
}

// Records implements RecordSource.
func (s *StoreRecordSource) Records(ctx context.Context) ([]*domain.TextRecord, error) {
	if s.start.IsZero() && s.end.IsZero() {
		records, err := s.store.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load text records: %w", err)
		}
		return records, nil
	}

	start, end := s.start, s.end
	if start.IsZero() || end.IsZero() {
		first, last, err := s.store.GetGlobalTimeRange(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			return []*domain.TextRecord{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load text record range: %w", err)
		}
		if start.IsZero() {
			start = first
		}
		if end.IsZero() {
			end = last
		}
	}

	records, err := s.store.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load text records: %w", err)
	}
	return records, nil
}

// StorePriceSource reads daily bars from a PriceBarStore.
type StorePriceSource struct {
	store storage.PriceBarStore
}

// NewStorePriceSource creates a price source backed by store.
func NewStorePriceSource(store storage.PriceBarStore) *StorePriceSource {
	return &StorePriceSource{store: store}
}

// DailyBars implements PriceSource. A ticker the store has never seen fails
// with storage.ErrNotFound rather than reading as an empty range.
func (s *StorePriceSource) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	tickers, err := s.store.GetTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	if !slices.Contains(tickers, ticker) {
		return nil, fmt.Errorf("ticker %q: %w", ticker, storage.ErrNotFound)
	}

	bars, err := s.store.GetByTimeRange(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("load daily bars for %s: %w", ticker, err)
	}
	return bars, nil
}

var (
	_ RecordSource = (*StoreRecordSource)(nil)
	_ PriceSource  = (*StorePriceSource)(nil)
)
