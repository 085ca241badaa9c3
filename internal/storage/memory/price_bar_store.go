package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceBar // keyed by (ticker, date)
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]*domain.PriceBar),
	}
}

// barKey generates a unique key for a bar.
func barKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%d", ticker, date.Unix())
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate (ticker, date).
func (s *PriceBarStore) InsertBulk(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Ticker == "" || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Ticker, b.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		barCopy := *b
		s.data[barKey(b.Ticker, b.Date)] = &barCopy
	}

	return nil
}

// GetByTimeRange retrieves bars for a ticker within [start, end] (inclusive), ordered by date ASC.
func (s *PriceBarStore) GetByTimeRange(_ context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for _, b := range s.data {
		if b.Ticker == ticker && !b.Date.Before(start) && !b.Date.After(end) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// GetTickers lists tickers with at least one bar, sorted.
func (s *PriceBarStore) GetTickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, b := range s.data {
		seen[b.Ticker] = struct{}{}
	}
	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	return tickers, nil
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
