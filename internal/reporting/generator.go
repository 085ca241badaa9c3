package reporting

import (
	"errors"
	"fmt"
	"time"

	"sentiment-lab/internal/analysis"
	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/idhash"
	"sentiment-lab/internal/orchestrator"
)

// GeneratorVersion is stamped into every report.
const GeneratorVersion = "1.0.0"

// ErrNilResult is returned when there is no run to report on.
var ErrNilResult = errors.New("run result is nil")

// Generator builds a Report from a finished run.
type Generator struct {
	clock func() time.Time
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.clock = now
	return g
}

// Generate builds the report. Partial results (no overlap, no market data)
// produce a report with empty causality and correlation sections.
func (g *Generator) Generate(run *orchestrator.RunResult) (*Report, error) {
	if run == nil {
		return nil, ErrNilResult
	}

	report := &Report{
		GeneratedAt: g.clock(),
		Ticker:      run.Ticker,
		Predictor:   run.Predictor,
		Target:      run.Target,
		MaxLag:      run.MaxLag,
		Alpha:       run.Alpha,
		DataSummary: generateDataSummary(run),
		Causality:   CausalityRows(run.Results, run.Alpha),
		Reproducibility: Reproducibility{
			GeneratorVersion: GeneratorVersion,
		},
	}

	report.DatasetID = idhash.ComputeDatasetID(run.Rows)
	report.RunID = idhash.ComputeRunID(report.DatasetID, run.Predictor, run.Target, run.MaxLag, run.Alpha).String()

	corr, err := analysis.Correlate(run.Rows, analysis.CorrelationFields)
	switch {
	case err == nil:
		report.Correlation = corr
	case errors.Is(err, analysis.ErrTooFewRows):
		// left nil; rendered as unavailable
	default:
		return nil, fmt.Errorf("correlation matrix: %w", err)
	}

	return report, nil
}

func generateDataSummary(run *orchestrator.RunResult) DataSummary {
	s := DataSummary{
		Records:       run.Records,
		SentimentDays: run.Coverage.SentimentDays,
		MarketDays:    run.Coverage.MarketDays,
		AlignedDays:   len(run.Rows),
		First:         run.Coverage.First,
		Last:          run.Coverage.Last,
	}
	if run.Stats != nil {
		s.Fallbacks = run.Stats.Fallbacks
		s.FailedScores = run.Stats.Failed
	}
	if s.SentimentDays == 0 {
		s.SentimentDays = len(run.Sentiment)
	}
	if s.MarketDays == 0 {
		s.MarketDays = len(run.Market)
	}
	return s
}

// CausalityRows converts per-lag results into report rows.
func CausalityRows(results []domain.CausalityResult, alpha float64) []CausalityRow {
	rows := make([]CausalityRow, 0, len(results))
	for i := range results {
		r := &results[i]
		row := CausalityRow{Lag: r.Lag}
		if r.Failed() {
			row.Error = r.Err.Error()
			rows = append(rows, row)
			continue
		}
		row.FStatistic = r.FStatistic
		row.PValue = r.PValue
		row.DFNum = r.DFNum
		row.DFDenom = r.DFDenom
		row.Chi2 = r.Chi2
		row.Chi2PValue = r.Chi2PValue
		row.LR = r.LR
		row.LRPValue = r.LRPValue
		row.Obs = r.Obs
		row.Significant = r.Significant(alpha)
		rows = append(rows, row)
	}
	return rows
}
