package reporting

import (
	"time"

	"cloud.google.com/go/civil"

	"sentiment-lab/internal/analysis"
	"sentiment-lab/internal/domain"
)

// Report represents the causality run report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	DatasetID   string

	// Test parameters
	Ticker    string
	Predictor domain.Field
	Target    domain.Field
	MaxLag    int
	Alpha     float64

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Per-lag results in lag order
	Causality []CausalityRow

	// Correlation matrix; nil when fewer than two aligned rows
	Correlation *analysis.CorrelationMatrix

	// Reproducibility metadata
	Reproducibility Reproducibility
}

// DataSummary describes the inputs and how much of them survived the join.
type DataSummary struct {
	Records       int
	Fallbacks     int // non-text records scored neutral
	FailedScores  int // scores excluded from the daily mean
	SentimentDays int
	MarketDays    int
	AlignedDays   int
	First         civil.Date // zero when nothing aligned
	Last          civil.Date
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// CausalityRow is one lag of the Granger test as reported.
type CausalityRow struct {
	Lag         int
	FStatistic  float64
	PValue      float64
	DFNum       int
	DFDenom     int
	Chi2        float64
	Chi2PValue  float64
	LR          float64
	LRPValue    float64
	Obs         int
	Significant bool
	Error       string // set when the lag could not be computed
}

// Reproducibility contains metadata to re-run the same analysis.
type Reproducibility struct {
	DataSource       string // "csv", "db" or "fixtures"
	GeneratorVersion string
	ReplayCommand    string
}
