package orchestrator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/ingestion"
	"sentiment-lab/internal/observability"
	"sentiment-lab/internal/storage"
	"sentiment-lab/internal/storage/memory"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

var texts = []string{
	"Bitcoin is going to the moon, great gains!",
	"Terrible crash, I lost everything",
	"Markets are flat today",
	"Love this rally, amazing",
	"Awful news, very bad",
}

func seedRecords(t *testing.T, store *memory.TextRecordStore, days int) {
	t.Helper()
	var records []*domain.TextRecord
	for d := 0; d < days; d++ {
		for i := 0; i < 1+d%3; i++ {
			records = append(records, &domain.TextRecord{
				Timestamp: day0.AddDate(0, 0, d).Add(time.Duration(9+i) * time.Hour),
				Text:      null.StringFrom(texts[(d+i)%len(texts)]),
				Source:    "test",
			})
		}
	}
	if err := store.InsertBulk(context.Background(), records); err != nil {
		t.Fatalf("insert records: %v", err)
	}
}

func seedBars(t *testing.T, store *memory.PriceBarStore, ticker string, from time.Time, days int) {
	t.Helper()
	bars := make([]*domain.PriceBar, days)
	for d := 0; d < days; d++ {
		bars[d] = &domain.PriceBar{
			Ticker: ticker,
			Date:   from.AddDate(0, 0, d),
			Close:  100 + 5*math.Sin(float64(d)/2) + float64(d%4),
			Volume: float64(1000 + 10*d),
		}
	}
	if err := store.InsertBulk(context.Background(), bars); err != nil {
		t.Fatalf("insert bars: %v", err)
	}
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()
	records := memory.NewTextRecordStore()
	bars := memory.NewPriceBarStore()
	seedRecords(t, records, 30)
	seedBars(t, bars, "BTC-USD", day0.AddDate(0, 0, -20), 60)

	metrics := observability.NewMetrics("")
	orch := New(Options{
		RecordSource:     ingestion.NewStoreRecordSource(records),
		PriceSource:      ingestion.NewStorePriceSource(bars),
		Ticker:           "BTC-USD",
		VolatilityWindow: 3,
		MaxLag:           3,
		Metrics:          metrics,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.Records != 60 {
		t.Errorf("expected 60 records, got %d", result.Records)
	}
	if len(result.Sentiment) != 30 {
		t.Errorf("expected 30 sentiment days, got %d", len(result.Sentiment))
	}
	if len(result.Rows) != 30 {
		t.Errorf("expected 30 aligned rows, got %d", len(result.Rows))
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 lag results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Lag != i+1 {
			t.Errorf("result %d: expected lag %d, got %d", i, i+1, r.Lag)
		}
		if r.Failed() {
			t.Errorf("lag %d unexpectedly failed: %v", r.Lag, r.Err)
		}
		if r.PValue < 0 || r.PValue > 1 {
			t.Errorf("lag %d: p-value %f out of range", r.Lag, r.PValue)
		}
	}
	if result.RecordOrder != nil {
		t.Errorf("expected ordered records, got: %v", result.RecordOrder)
	}
	if result.Predictor != domain.FieldSentimentScore || result.Target != domain.FieldVolatility {
		t.Errorf("unexpected default fields: %s -> %s", result.Predictor, result.Target)
	}

	if got := testutil.ToFloat64(metrics.AlignedRows); got != 30 {
		t.Errorf("aligned rows gauge = %f, want 30", got)
	}
	if got := testutil.ToFloat64(metrics.RecordsScored); got != 60 {
		t.Errorf("records scored = %f, want 60", got)
	}
}

func TestOrchestrator_Run_NoRecords(t *testing.T) {
	orch := New(Options{
		RecordSource: ingestion.NewStoreRecordSource(memory.NewTextRecordStore()),
		PriceSource:  ingestion.NewStorePriceSource(memory.NewPriceBarStore()),
		Ticker:       "BTC-USD",
	})

	result, err := orch.Run(context.Background())
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got: %v", err)
	}
	if result == nil || result.Records != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestOrchestrator_Run_NoMarketData(t *testing.T) {
	records := memory.NewTextRecordStore()
	seedRecords(t, records, 10)

	orch := New(Options{
		RecordSource: ingestion.NewStoreRecordSource(records),
		PriceSource:  ingestion.NewStorePriceSource(memory.NewPriceBarStore()),
		Ticker:       "BTC-USD",
	})

	result, err := orch.Run(context.Background())
	if !errors.Is(err, ErrNoMarketData) {
		t.Fatalf("expected ErrNoMarketData, got: %v", err)
	}
	if len(result.Sentiment) != 10 {
		t.Errorf("expected sentiment series in partial result, got %d days", len(result.Sentiment))
	}
}

func TestOrchestrator_Run_UnknownTicker(t *testing.T) {
	records := memory.NewTextRecordStore()
	bars := memory.NewPriceBarStore()
	seedRecords(t, records, 10)
	seedBars(t, bars, "SPY", day0, 10)

	orch := New(Options{
		RecordSource: ingestion.NewStoreRecordSource(records),
		PriceSource:  ingestion.NewStorePriceSource(bars),
		Ticker:       "BTC-USD",
	})

	result, err := orch.Run(context.Background())
	if !errors.Is(err, ErrNoMarketData) {
		t.Fatalf("expected ErrNoMarketData, got: %v", err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected storage.ErrNotFound in chain, got: %v", err)
	}
	if !strings.Contains(err.Error(), "BTC-USD") {
		t.Errorf("error should name the ticker: %v", err)
	}
	if result == nil || len(result.Sentiment) != 10 {
		t.Errorf("expected sentiment series in partial result, got %+v", result)
	}
}

func TestOrchestrator_New_LogComponentsNotDuplicated(t *testing.T) {
	records := memory.NewTextRecordStore()
	bars := memory.NewPriceBarStore()
	seedRecords(t, records, 20)
	seedBars(t, bars, "BTC-USD", day0.AddDate(0, 0, -10), 40)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	orch := New(Options{
		RecordSource:     ingestion.NewStoreRecordSource(records),
		PriceSource:      ingestion.NewStorePriceSource(bars),
		Ticker:           "BTC-USD",
		VolatilityWindow: 3,
		MaxLag:           2,
		Logger:           &logger,
	})
	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	seen := map[string]bool{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		line := scanner.Text()
		if n := strings.Count(line, `"component":`); n != 1 {
			t.Errorf("expected one component key, got %d: %s", n, line)
			continue
		}
		var entry struct {
			Component string `json:"component"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		seen[entry.Component] = true
	}
	for _, want := range []string{"orchestrator", "aggregator"} {
		if !seen[want] {
			t.Errorf("no log line from component %q", want)
		}
	}
}

// fixedPriceSource ignores the requested window.
type fixedPriceSource struct {
	bars       []*domain.PriceBar
	start, end time.Time
	calls      int
}

func (s *fixedPriceSource) DailyBars(_ context.Context, _ string, start, end time.Time) ([]*domain.PriceBar, error) {
	s.calls++
	s.start, s.end = start, end
	return s.bars, nil
}

func TestOrchestrator_Run_NoOverlap(t *testing.T) {
	records := memory.NewTextRecordStore()
	seedRecords(t, records, 10)

	bars := memory.NewPriceBarStore()
	seedBars(t, bars, "BTC-USD", day0.AddDate(1, 0, 0), 20)
	all, err := bars.GetByTimeRange(context.Background(), "BTC-USD", day0, day0.AddDate(2, 0, 0))
	if err != nil {
		t.Fatalf("read bars: %v", err)
	}

	orch := New(Options{
		RecordSource:     ingestion.NewStoreRecordSource(records),
		PriceSource:      &fixedPriceSource{bars: all},
		Ticker:           "BTC-USD",
		VolatilityWindow: 3,
	})

	result, err := orch.Run(context.Background())
	if !errors.Is(err, ErrNoOverlap) {
		t.Fatalf("expected ErrNoOverlap, got: %v", err)
	}
	if result.Coverage.SentimentDays != 10 || result.Coverage.AlignedDays != 0 {
		t.Errorf("unexpected coverage: %+v", result.Coverage)
	}
	if len(result.Market) == 0 {
		t.Error("expected market series in partial result")
	}
	if result.Results != nil {
		t.Error("causality must not run without overlap")
	}
}

func TestOrchestrator_Run_MarketWindow(t *testing.T) {
	records := memory.NewTextRecordStore()
	seedRecords(t, records, 5)
	src := &fixedPriceSource{}

	orch := New(Options{
		RecordSource:     ingestion.NewStoreRecordSource(records),
		PriceSource:      src,
		Ticker:           "BTC-USD",
		VolatilityWindow: 7,
	})

	if _, err := orch.Run(context.Background()); !errors.Is(err, ErrNoMarketData) {
		t.Fatalf("expected ErrNoMarketData, got: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one market request, got %d", src.calls)
	}

	wantStart := day0.AddDate(0, 0, -MarketPadDays(7))
	wantEnd := day0.AddDate(0, 0, 5)
	if !src.start.Equal(wantStart) {
		t.Errorf("start = %s, want %s", src.start, wantStart)
	}
	if !src.end.Equal(wantEnd) {
		t.Errorf("end = %s, want %s", src.end, wantEnd)
	}
}

type failingRecordSource struct{}

func (failingRecordSource) Records(context.Context) ([]*domain.TextRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestOrchestrator_Run_SourceError(t *testing.T) {
	orch := New(Options{
		RecordSource: failingRecordSource{},
		PriceSource:  &fixedPriceSource{},
	})

	_, err := orch.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNoRecords) {
		t.Errorf("source failure must not be reported as no records: %v", err)
	}
}

func TestOrchestrator_Run_MissingSources(t *testing.T) {
	if _, err := New(Options{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing sources")
	}
}
