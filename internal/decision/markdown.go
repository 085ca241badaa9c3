package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders DecisionResult as Markdown string.
func RenderMarkdown(result *DecisionResult) string {
	var sb strings.Builder

	sb.WriteString("# Causality Decision Report\n\n")
	sb.WriteString(fmt.Sprintf("Hypothesis: past `%s` helps predict `%s`.\n\n", result.Predictor, result.Target))
	sb.WriteString(fmt.Sprintf("## Decision: %s\n\n", result.Decision))

	sb.WriteString("## Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-----------|-----------|--------|------|\n")
	for i, c := range result.Criteria {
		passStr := "PASS"
		if !c.Pass {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString("\n")

	sb.WriteString("## Summary\n\n")
	switch result.Decision {
	case DecisionSignificant:
		lags := make([]string, len(result.SignificantLags))
		for i, l := range result.SignificantLags {
			lags[i] = fmt.Sprintf("%d", l)
		}
		sb.WriteString(fmt.Sprintf("The null hypothesis of no Granger causality is rejected at alpha=%.2f for lag(s) %s.\n",
			result.Alpha, strings.Join(lags, ", ")))
		sb.WriteString(fmt.Sprintf("`%s` carries lagged information about `%s`.\n", result.Predictor, result.Target))
	case DecisionNotSignificant:
		sb.WriteString(fmt.Sprintf("No tested lag rejects the null at alpha=%.2f (smallest p=%.4f at lag %d).\n",
			result.Alpha, result.BestPValue, result.BestLag))
	default:
		sb.WriteString("Not enough aligned observations to run the test. Widen the sample or the date range.\n")
		for _, c := range result.Criteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- Failed: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	}
	if result.FailedLags > 0 {
		sb.WriteString(fmt.Sprintf("\n%d lag(s) could not be computed.\n", result.FailedLags))
	}

	return sb.String()
}
