// Package aggregation reduces scored text records to a daily sentiment series.
package aggregation

import (
	"context"
	"math"
	"runtime"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/sentiment"
)

// Stats summarizes one aggregation run.
type Stats struct {
	Records   int // records received
	Fallbacks int // neutral scores assigned to unusable text
	Failed    int // scores excluded as non-finite or out of range
	Days      int // days emitted
}

// Aggregator scores records and groups them by calendar day.
type Aggregator struct {
	scorer  sentiment.Scorer
	workers int
	log     zerolog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers bounds scoring parallelism. Values < 1 mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		a.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.log = log.With().Str("component", "aggregator").Logger()
	}
}

// NewAggregator creates an aggregator around scorer.
// The scorer must be safe for concurrent use.
func NewAggregator(scorer sentiment.Scorer, opts ...Option) *Aggregator {
	a := &Aggregator{
		scorer: scorer,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	return a
}

// Score scores every record. Output index i corresponds to records[i].
// The only error is context cancellation.
func (a *Aggregator) Score(ctx context.Context, records []*domain.TextRecord) ([]domain.ScoredRecord, error) {
	scored := make([]domain.ScoredRecord, len(records))
	if len(records) == 0 {
		return scored, nil
	}

	chunk := (len(records) + a.workers - 1) / a.workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				r := records[i]
				score, fallback := a.scorer.Score(r.Text)
				scored[i] = domain.ScoredRecord{
					Timestamp: r.Timestamp,
					Score:     score,
					Fallback:  fallback,
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// Aggregate scores records and reduces them to one DailySentiment per date present.
func (a *Aggregator) Aggregate(ctx context.Context, records []*domain.TextRecord) (domain.DailySentimentSeries, *Stats, error) {
	scored, err := a.Score(ctx, records)
	if err != nil {
		return nil, nil, err
	}

	series, stats := Reduce(scored)
	stats.Records = len(records)

	a.log.Info().
		Int("records", stats.Records).
		Int("fallbacks", stats.Fallbacks).
		Int("failed", stats.Failed).
		Int("days", stats.Days).
		Msg("aggregated daily sentiment")
	if stats.Failed > 0 {
		a.log.Warn().Int("failed", stats.Failed).Msg("excluded non-finite or out-of-range scores")
	}

	return series, stats, nil
}

// Reduce groups scored records by the wall-clock date of their timestamp.
// Failed scores are excluded from both mean and count; a day with no valid
// score is omitted.
func Reduce(scored []domain.ScoredRecord) (domain.DailySentimentSeries, *Stats) {
	stats := &Stats{}
	byDay := make(map[civil.Date][]float64)

	for _, s := range scored {
		if s.Fallback {
			stats.Fallbacks++
		}
		if !validScore(s.Score) {
			stats.Failed++
			continue
		}
		day := civil.DateOf(s.Timestamp)
		byDay[day] = append(byDay[day], s.Score)
	}

	series := make(domain.DailySentimentSeries, len(byDay))
	for day, scores := range byDay {
		series[day] = domain.DailySentiment{
			Date:        day,
			MeanScore:   stat.Mean(scores, nil),
			RecordCount: len(scores),
		}
	}
	stats.Days = len(series)

	return series, stats
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -1 && v <= 1
}
