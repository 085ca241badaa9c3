// Package orchestrator runs the sentiment → volatility pipeline end to end.
// It coordinates: load records → aggregate → market data → align → causality test
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"sentiment-lab/internal/aggregation"
	"sentiment-lab/internal/alignment"
	"sentiment-lab/internal/causality"
	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/ingestion"
	"sentiment-lab/internal/marketdata"
	"sentiment-lab/internal/observability"
	"sentiment-lab/internal/sentiment"
	"sentiment-lab/internal/storage"
)

// Errors that stop a run before the causality test.
var (
	ErrNoRecords    = errors.New("no text records loaded")
	ErrNoMarketData = errors.New("no market data for the record window")
	ErrNoOverlap    = errors.New("sentiment and market series share no dates")
)

// Defaults used when Options leave a field zero.
const (
	DefaultMaxLag = 5
	DefaultAlpha  = 0.05
)

// Orchestrator coordinates one batch run.
type Orchestrator struct {
	records    ingestion.RecordSource
	prices     ingestion.PriceSource
	aggregator *aggregation.Aggregator
	tester     *causality.Tester

	ticker    string
	window    int
	maxLag    int
	alpha     float64
	predictor domain.Field
	target    domain.Field

	log     zerolog.Logger
	metrics *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Required sources
	RecordSource ingestion.RecordSource
	PriceSource  ingestion.PriceSource

	// Stages; nil uses the defaults (VADER scorer, plain tester)
	Aggregator *aggregation.Aggregator
	Tester     *causality.Tester

	// Test parameters
	Ticker           string
	VolatilityWindow int
	MaxLag           int
	Alpha            float64
	Predictor        domain.Field
	Target           domain.Field

	Logger  *zerolog.Logger
	Metrics *observability.Metrics // optional
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	log := base.With().Str("component", "orchestrator").Logger()

	o := &Orchestrator{
		records:    opts.RecordSource,
		prices:     opts.PriceSource,
		aggregator: opts.Aggregator,
		tester:     opts.Tester,
		ticker:     opts.Ticker,
		window:     opts.VolatilityWindow,
		maxLag:     opts.MaxLag,
		alpha:      opts.Alpha,
		predictor:  opts.Predictor,
		target:     opts.Target,
		log:        log,
		metrics:    opts.Metrics,
	}
	if o.aggregator == nil {
		o.aggregator = aggregation.NewAggregator(defaultScorer(), aggregation.WithLogger(base))
	}
	if o.tester == nil {
		o.tester = causality.NewTester(causality.WithLogger(base))
	}
	if o.window == 0 {
		o.window = marketdata.DefaultVolatilityWindow
	}
	if o.maxLag == 0 {
		o.maxLag = DefaultMaxLag
	}
	if o.alpha == 0 {
		o.alpha = DefaultAlpha
	}
	if o.predictor == "" {
		o.predictor = domain.FieldSentimentScore
	}
	if o.target == "" {
		o.target = domain.FieldVolatility
	}
	return o
}

// RunResult contains everything a run produced, including partial results
// when it stopped early.
type RunResult struct {
	Records   int
	Stats     *aggregation.Stats
	Sentiment domain.DailySentimentSeries
	Market    []domain.DailyMarket
	Rows      []domain.AlignedRow
	Coverage  alignment.Coverage
	Results   []domain.CausalityResult

	// RecordOrder is the ordering check on the loaded records, nil when
	// they are in (timestamp, id) order.
	RecordOrder error

	Ticker    string
	Predictor domain.Field
	Target    domain.Field
	MaxLag    int
	Alpha     float64
}

// Run executes the full pipeline.
// Phases:
//  1. Load text records
//  2. Score and aggregate by day
//  3. Load market bars for the record window and derive volatility
//  4. Align both series on date
//  5. Granger causality test for lags 1..MaxLag
//
// ErrNoRecords, ErrNoMarketData and ErrNoOverlap are returned together with
// the partial result so callers can still report coverage.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if o.records == nil || o.prices == nil {
		return nil, errors.New("orchestrator: record and price sources are required")
	}

	result := &RunResult{
		Ticker:    o.ticker,
		Predictor: o.predictor,
		Target:    o.target,
		MaxLag:    o.maxLag,
		Alpha:     o.alpha,
	}

	// Phase 1: Load records
	o.log.Info().Msg("phase 1: loading text records")
	started := time.Now()
	records, err := o.records.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load records) failed: %w", err)
	}
	ingestion.SortRecords(records)
	result.RecordOrder = ingestion.ValidateRecordOrdering(records)
	if result.RecordOrder != nil {
		o.log.Error().Err(result.RecordOrder).Msg("records out of order after sort")
	}
	o.metrics.RecordRecordsLoaded(sourceName(o.records), len(records), time.Since(started).Seconds())
	o.metrics.RecordStage("load", time.Since(started).Seconds())
	result.Records = len(records)
	o.log.Info().Int("records", len(records)).Msg("loaded text records")

	if len(records) == 0 {
		return result, ErrNoRecords
	}

	// Phase 2: Score and aggregate
	o.log.Info().Msg("phase 2: scoring and aggregating")
	started = time.Now()
	series, stats, err := o.aggregator.Aggregate(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (aggregate) failed: %w", err)
	}
	o.metrics.RecordScoring(stats.Records, stats.Fallbacks, stats.Failed, stats.Days)
	o.metrics.RecordStage("aggregate", time.Since(started).Seconds())
	result.Stats = stats
	result.Sentiment = series

	// Phase 3: Market data
	o.log.Info().Str("ticker", o.ticker).Msg("phase 3: loading market data")
	started = time.Now()
	market, err := o.loadMarket(ctx, records)
	if errors.Is(err, storage.ErrNotFound) {
		return result, fmt.Errorf("%w: %w", ErrNoMarketData, err)
	}
	if err != nil {
		return nil, fmt.Errorf("phase 3 (market data) failed: %w", err)
	}
	o.metrics.RecordStage("market", time.Since(started).Seconds())
	result.Market = market

	if len(market) == 0 {
		return result, ErrNoMarketData
	}

	// Phase 4: Align
	o.log.Info().Msg("phase 4: aligning series")
	started = time.Now()
	rows := alignment.Align(series, market)
	result.Rows = rows
	result.Coverage = alignment.Summarize(series, market, rows)
	o.metrics.RecordSeriesSizes(len(market), len(rows))
	o.metrics.RecordStage("align", time.Since(started).Seconds())
	o.log.Info().
		Int("sentiment_days", result.Coverage.SentimentDays).
		Int("market_days", result.Coverage.MarketDays).
		Int("aligned_days", result.Coverage.AlignedDays).
		Msg("aligned series")

	if len(rows) == 0 {
		o.log.Warn().Msg("no overlapping dates, skipping causality test")
		return result, ErrNoOverlap
	}

	// Phase 5: Causality
	o.log.Info().
		Str("predictor", string(o.predictor)).
		Str("target", string(o.target)).
		Int("max_lag", o.maxLag).
		Msg("phase 5: testing causality")
	started = time.Now()
	results, err := o.tester.Test(rows, o.predictor, o.target, o.maxLag)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (causality) failed: %w", err)
	}
	o.metrics.RecordStage("causality", time.Since(started).Seconds())
	result.Results = results
	o.recordLagOutcomes(results)

	o.log.Info().
		Int("records", result.Records).
		Int("aligned_days", len(rows)).
		Int("lags", len(results)).
		Msg("pipeline completed")

	return result, nil
}

// loadMarket fetches bars covering the record window. The start is padded so
// the first record day already has a full volatility window.
func (o *Orchestrator) loadMarket(ctx context.Context, records []*domain.TextRecord) ([]domain.DailyMarket, error) {
	first, last, _ := ingestion.TimeRange(records)
	start := truncateDay(first).AddDate(0, 0, -MarketPadDays(o.window))
	end := truncateDay(last).AddDate(0, 0, 1)

	started := time.Now()
	bars, err := o.prices.DailyBars(ctx, o.ticker, start, end)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordBarsLoaded(len(bars), time.Since(started).Seconds())

	market, err := marketdata.BuildDailyMarket(bars, o.window)
	if err != nil {
		return nil, err
	}
	o.log.Info().
		Int("bars", len(bars)).
		Int("market_days", len(market)).
		Time("start", start).
		Time("end", end).
		Msg("built daily market series")
	return market, nil
}

func (o *Orchestrator) recordLagOutcomes(results []domain.CausalityResult) {
	minP := math.Inf(1)
	for i := range results {
		r := &results[i]
		switch {
		case r.Failed():
			o.metrics.RecordLagTest(observability.OutcomeFailed)
			o.log.Warn().Err(r.Err).Int("lag", r.Lag).Msg("lag test failed")
		case r.Significant(o.alpha):
			o.metrics.RecordLagTest(observability.OutcomeSignificant)
		default:
			o.metrics.RecordLagTest(observability.OutcomeNotSignificant)
		}
		if !r.Failed() && r.PValue < minP {
			minP = r.PValue
		}
	}
	if !math.IsInf(minP, 1) {
		o.metrics.RecordMinPValue(minP)
	}
}

// MarketPadDays is how many calendar days before the first record the market
// window starts. Two calendar days per trading day covers weekends.
func MarketPadDays(window int) int {
	return 2*window + 2
}

func defaultScorer() sentiment.Scorer {
	return sentiment.NewScorer(sentiment.NewVaderAnalyzer(), sentiment.WithCleaning(true))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sourceName(src ingestion.RecordSource) string {
	switch src.(type) {
	case *ingestion.CSVRecordSource:
		return "csv"
	case *ingestion.StoreRecordSource:
		return "store"
	default:
		return "other"
	}
}
