package decision

import (
	"errors"

	"sentiment-lab/internal/domain"
)

// Decision is the verdict on whether the predictor has lagged predictive power.
type Decision string

const (
	DecisionSignificant      Decision = "SIGNIFICANT"
	DecisionNotSignificant   Decision = "NOT_SIGNIFICANT"
	DecisionInsufficientData Decision = "INSUFFICIENT_DATA"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Validation errors.
var (
	ErrNilInput       = errors.New("decision input is nil")
	ErrInvalidAlpha   = errors.New("alpha must be in (0, 1)")
	ErrEmptyField     = errors.New("predictor and target must be set")
	ErrInvalidMaxLag  = errors.New("max lag must be >= 1")
	ErrResultsTooLong = errors.New("more results than lags")
)

// DecisionInput contains everything the verdict depends on.
type DecisionInput struct {
	Predictor domain.Field
	Target    domain.Field
	Alpha     float64
	MaxLag    int

	// Per-lag results in lag order. Empty when the test never ran.
	Results []domain.CausalityResult

	// Outcome of the data sufficiency checks run before testing.
	SufficiencyPass bool
	AlignedDays     int
}

// Validate checks the input is usable.
func (in *DecisionInput) Validate() error {
	if in == nil {
		return ErrNilInput
	}
	if !(in.Alpha > 0 && in.Alpha < 1) {
		return ErrInvalidAlpha
	}
	if in.Predictor == "" || in.Target == "" {
		return ErrEmptyField
	}
	if in.MaxLag < 1 {
		return ErrInvalidMaxLag
	}
	if len(in.Results) > in.MaxLag {
		return ErrResultsTooLong
	}
	return nil
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the verdict with its checklist.
type DecisionResult struct {
	Decision  Decision
	Predictor domain.Field
	Target    domain.Field
	Alpha     float64
	Criteria  []CriterionResult

	SignificantLags []int
	BestLag         int     // lag with the smallest p-value, 0 if none computed
	BestPValue      float64 // p-value at BestLag
	ComputedLags    int
	FailedLags      int
}
