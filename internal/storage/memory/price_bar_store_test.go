package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

func TestPriceBarStore_InsertAndGetByTimeRange(t *testing.T) {
	ctx := context.Background()
	store := NewPriceBarStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var bars []*domain.PriceBar
	for i := 4; i >= 0; i-- {
		bars = append(bars, &domain.PriceBar{
			Ticker: "BTC-USD",
			Date:   base.AddDate(0, 0, i),
			Close:  100 + float64(i),
		})
	}
	bars = append(bars, &domain.PriceBar{Ticker: "ETH-USD", Date: base, Close: 10})

	if err := store.InsertBulk(ctx, bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "BTC-USD", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Errorf("bars not sorted at %d", i)
		}
	}
	if got[0].Close != 101 {
		t.Errorf("expected close 101, got %f", got[0].Close)
	}
}

func TestPriceBarStore_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := NewPriceBarStore()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bar := &domain.PriceBar{Ticker: "BTC-USD", Date: date, Close: 1}
	if err := store.InsertBulk(ctx, []*domain.PriceBar{bar}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.PriceBar{bar}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same date on another ticker is fine.
	other := &domain.PriceBar{Ticker: "ETH-USD", Date: date, Close: 1}
	if err := store.InsertBulk(ctx, []*domain.PriceBar{other}); err != nil {
		t.Errorf("unexpected error for other ticker: %v", err)
	}
}

func TestPriceBarStore_IntraBatchDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewPriceBarStore()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := store.InsertBulk(ctx, []*domain.PriceBar{
		{Ticker: "BTC-USD", Date: date, Close: 1},
		{Ticker: "BTC-USD", Date: date.AddDate(0, 0, 1), Close: 2},
		{Ticker: "BTC-USD", Date: date, Close: 3},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	tickers, _ := store.GetTickers(ctx)
	if len(tickers) != 0 {
		t.Errorf("expected no tickers after failed batch, got %v", tickers)
	}
}

func TestPriceBarStore_InvalidInput(t *testing.T) {
	store := NewPriceBarStore()
	err := store.InsertBulk(context.Background(), []*domain.PriceBar{{Date: time.Now()}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPriceBarStore_GetTickers(t *testing.T) {
	ctx := context.Background()
	store := NewPriceBarStore()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = store.InsertBulk(ctx, []*domain.PriceBar{
		{Ticker: "SPY", Date: date, Close: 1},
		{Ticker: "BTC-USD", Date: date, Close: 1},
		{Ticker: "SPY", Date: date.AddDate(0, 0, 1), Close: 1},
	})

	tickers, err := store.GetTickers(ctx)
	if err != nil {
		t.Fatalf("GetTickers failed: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "BTC-USD" || tickers[1] != "SPY" {
		t.Errorf("unexpected tickers: %v", tickers)
	}
}
