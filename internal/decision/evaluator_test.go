package decision

import (
	"errors"
	"strings"
	"testing"

	"sentiment-lab/internal/causality"
	"sentiment-lab/internal/domain"
)

func baseInput(results ...domain.CausalityResult) DecisionInput {
	return DecisionInput{
		Predictor:       domain.FieldSentimentScore,
		Target:          domain.FieldVolatility,
		Alpha:           DefaultAlpha,
		MaxLag:          5,
		Results:         results,
		SufficiencyPass: true,
		AlignedDays:     60,
	}
}

func ok(lag int, p float64) domain.CausalityResult {
	return domain.CausalityResult{Lag: lag, PValue: p, DFNum: lag, Obs: 60 - lag}
}

func failed(lag int) domain.CausalityResult {
	return domain.CausalityResult{Lag: lag, Err: causality.ErrInsufficientData}
}

func TestEvaluate_Significant(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput(ok(1, 0.40), ok(2, 0.03), ok(3, 0.01), ok(4, 0.2)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionSignificant {
		t.Errorf("Expected SIGNIFICANT, got %s", result.Decision)
	}
	if len(result.SignificantLags) != 2 || result.SignificantLags[0] != 2 || result.SignificantLags[1] != 3 {
		t.Errorf("Expected significant lags [2 3], got %v", result.SignificantLags)
	}
	if result.BestLag != 3 || result.BestPValue != 0.01 {
		t.Errorf("Expected best lag 3 (p=0.01), got %d (p=%f)", result.BestLag, result.BestPValue)
	}
	for i, c := range result.Criteria {
		if !c.Pass {
			t.Errorf("criterion %d (%s) should pass", i+1, c.Name)
		}
	}
}

func TestEvaluate_NotSignificant(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput(ok(1, 0.5), ok(2, 0.05), ok(3, 0.3)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// p == alpha does not reject.
	if result.Decision != DecisionNotSignificant {
		t.Errorf("Expected NOT_SIGNIFICANT, got %s", result.Decision)
	}
	if result.BestLag != 2 {
		t.Errorf("Expected best lag 2, got %d", result.BestLag)
	}
	if result.Criteria[2].Pass {
		t.Error("minimum p-value criterion should fail")
	}
}

func TestEvaluate_InsufficientWhenAllLagsFailed(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput(failed(1), failed(2)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionInsufficientData {
		t.Errorf("Expected INSUFFICIENT_DATA, got %s", result.Decision)
	}
	if result.FailedLags != 2 || result.ComputedLags != 0 {
		t.Errorf("unexpected lag counts: computed=%d failed=%d", result.ComputedLags, result.FailedLags)
	}
}

func TestEvaluate_InsufficientWhenSufficiencyFails(t *testing.T) {
	input := baseInput(ok(1, 0.001))
	input.SufficiencyPass = false

	result, err := NewEvaluator().Evaluate(input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Decision != DecisionInsufficientData {
		t.Errorf("Expected INSUFFICIENT_DATA, got %s", result.Decision)
	}
}

func TestEvaluate_FailedLagsIgnoredForSignificance(t *testing.T) {
	// 10 aligned days; lags 3..5 exceed the data.
	result, err := NewEvaluator().Evaluate(baseInput(ok(1, 0.2), ok(2, 0.04), failed(3), failed(4), failed(5)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionSignificant {
		t.Errorf("Expected SIGNIFICANT, got %s", result.Decision)
	}
	if result.ComputedLags != 2 || result.FailedLags != 3 {
		t.Errorf("unexpected lag counts: computed=%d failed=%d", result.ComputedLags, result.FailedLags)
	}
}

func TestEvaluate_EmptyResults(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Decision != DecisionInsufficientData {
		t.Errorf("Expected INSUFFICIENT_DATA, got %s", result.Decision)
	}
	if result.Criteria[2].Actual != "n/a" {
		t.Errorf("expected n/a for missing p-value, got %s", result.Criteria[2].Actual)
	}
}

func TestDecisionInput_Validate(t *testing.T) {
	valid := baseInput()
	if err := valid.Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	var nilInput *DecisionInput
	if err := nilInput.Validate(); !errors.Is(err, ErrNilInput) {
		t.Errorf("expected ErrNilInput, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DecisionInput)
		want   error
	}{
		{"zero alpha", func(in *DecisionInput) { in.Alpha = 0 }, ErrInvalidAlpha},
		{"alpha one", func(in *DecisionInput) { in.Alpha = 1 }, ErrInvalidAlpha},
		{"empty predictor", func(in *DecisionInput) { in.Predictor = "" }, ErrEmptyField},
		{"empty target", func(in *DecisionInput) { in.Target = "" }, ErrEmptyField},
		{"zero lag", func(in *DecisionInput) { in.MaxLag = 0 }, ErrInvalidMaxLag},
		{"too many results", func(in *DecisionInput) {
			in.MaxLag = 1
			in.Results = []domain.CausalityResult{ok(1, 0.1), ok(2, 0.1)}
		}, ErrResultsTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			tt.mutate(&input)
			if err := input.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if _, err := NewEvaluator().Evaluate(input); !errors.Is(err, tt.want) {
				t.Errorf("Evaluate: expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput(ok(1, 0.2), ok(2, 0.01), failed(3)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	md := RenderMarkdown(result)

	for _, want := range []string{
		"# Causality Decision Report",
		"## Decision: SIGNIFICANT",
		"`sentiment_score` helps predict `volatility`",
		"| 3 | Minimum p-value | < 0.05 | 0.0100 at lag 2 | PASS |",
		"lag(s) 2",
		"1 lag(s) could not be computed",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_Insufficient(t *testing.T) {
	result, err := NewEvaluator().Evaluate(baseInput(failed(1)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	md := RenderMarkdown(result)
	if !strings.Contains(md, "## Decision: INSUFFICIENT_DATA") {
		t.Errorf("expected insufficient decision header\n%s", md)
	}
	if !strings.Contains(md, "- Failed: Lags computed (actual: 0/5)") {
		t.Errorf("expected failed criterion listing\n%s", md)
	}
}
