package decision

import (
	"fmt"
)

// Evaluator turns causality results into a verdict.
type Evaluator struct{}

// NewEvaluator creates a new decision evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces a DecisionResult from DecisionInput.
// INSUFFICIENT_DATA if sufficiency failed or no lag could be computed.
// SIGNIFICANT if any computed lag has p < alpha, NOT_SIGNIFICANT otherwise.
func (e *Evaluator) Evaluate(input DecisionInput) (*DecisionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}

	result := &DecisionResult{
		Predictor: input.Predictor,
		Target:    input.Target,
		Alpha:     input.Alpha,
	}

	for i := range input.Results {
		r := &input.Results[i]
		if r.Failed() {
			result.FailedLags++
			continue
		}
		result.ComputedLags++
		if result.BestLag == 0 || r.PValue < result.BestPValue {
			result.BestLag = r.Lag
			result.BestPValue = r.PValue
		}
		if r.Significant(input.Alpha) {
			result.SignificantLags = append(result.SignificantLags, r.Lag)
		}
	}

	result.Criteria = e.evaluateCriteria(input, result)

	switch {
	case !input.SufficiencyPass || result.ComputedLags == 0:
		result.Decision = DecisionInsufficientData
	case len(result.SignificantLags) > 0:
		result.Decision = DecisionSignificant
	default:
		result.Decision = DecisionNotSignificant
	}

	return result, nil
}

func (e *Evaluator) evaluateCriteria(input DecisionInput, result *DecisionResult) []CriterionResult {
	criteria := make([]CriterionResult, 3)

	// 1. Sufficiency checks passed
	criteria[0] = CriterionResult{
		Name:      "Data sufficiency",
		Threshold: "all checks pass",
		Actual:    fmt.Sprintf("%t (%d aligned days)", input.SufficiencyPass, input.AlignedDays),
		Pass:      input.SufficiencyPass,
	}

	// 2. At least one lag computed
	criteria[1] = CriterionResult{
		Name:      "Lags computed",
		Threshold: ">= 1",
		Actual:    fmt.Sprintf("%d/%d", result.ComputedLags, input.MaxLag),
		Pass:      result.ComputedLags > 0,
	}

	// 3. Smallest p-value below alpha
	actual := "n/a"
	if result.BestLag > 0 {
		actual = fmt.Sprintf("%.4f at lag %d", result.BestPValue, result.BestLag)
	}
	criteria[2] = CriterionResult{
		Name:      "Minimum p-value",
		Threshold: fmt.Sprintf("< %.2f", input.Alpha),
		Actual:    actual,
		Pass:      result.BestLag > 0 && result.BestPValue < input.Alpha,
	}

	return criteria
}
