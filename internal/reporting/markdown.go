package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"sentiment-lab/internal/idhash"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sentiment Causality Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Ticker: %s | Predictor: %s | Target: %s | Max lag: %d | Alpha: %.2f\n\n",
		r.Ticker, r.Predictor, r.Target, r.MaxLag, r.Alpha))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Text Records | %d |\n", r.DataSummary.Records))
	sb.WriteString(fmt.Sprintf("| Neutral Fallbacks | %d |\n", r.DataSummary.Fallbacks))
	sb.WriteString(fmt.Sprintf("| Excluded Scores | %d |\n", r.DataSummary.FailedScores))
	sb.WriteString(fmt.Sprintf("| Sentiment Days | %d |\n", r.DataSummary.SentimentDays))
	sb.WriteString(fmt.Sprintf("| Market Days | %d |\n", r.DataSummary.MarketDays))
	sb.WriteString(fmt.Sprintf("| Aligned Days | %d |\n", r.DataSummary.AlignedDays))
	if r.DataSummary.AlignedDays > 0 {
		sb.WriteString(fmt.Sprintf("| First Aligned Date | %s |\n", r.DataSummary.First))
		sb.WriteString(fmt.Sprintf("| Last Aligned Date | %s |\n", r.DataSummary.Last))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Decision: INSUFFICIENT_DATA\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Causality
	sb.WriteString("## Granger Causality\n\n")
	sb.WriteString(fmt.Sprintf("H0: %s does not Granger-cause %s.\n\n", r.Predictor, r.Target))
	if len(r.Causality) > 0 {
		sb.WriteString("| Lag | F | p-value | df | chi2 | chi2 p | LR | LR p | Obs | Significant |\n")
		sb.WriteString("|-----|---|---------|----|------|--------|----|------|-----|-------------|\n")
		for _, c := range r.Causality {
			if c.Error != "" {
				sb.WriteString(fmt.Sprintf("| %d | - | - | - | - | - | - | - | - | n/a (%s) |\n", c.Lag, c.Error))
				continue
			}
			sb.WriteString(fmt.Sprintf("| %d | %.4f | %.4f | (%d, %d) | %.4f | %.4f | %.4f | %.4f | %d | %s |\n",
				c.Lag, c.FStatistic, c.PValue, c.DFNum, c.DFDenom,
				c.Chi2, c.Chi2PValue, c.LR, c.LRPValue, c.Obs, yesNo(c.Significant)))
		}
	} else {
		sb.WriteString("Causality test not run.\n")
	}
	sb.WriteString("\n")

	// Correlation
	sb.WriteString("## Correlation Matrix\n\n")
	if m := r.Correlation; m != nil {
		sb.WriteString("| |")
		for _, f := range m.Fields {
			sb.WriteString(fmt.Sprintf(" %s |", f))
		}
		sb.WriteString("\n|---|")
		for range m.Fields {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for i, f := range m.Fields {
			sb.WriteString(fmt.Sprintf("| %s |", f))
			for j := range m.Fields {
				sb.WriteString(fmt.Sprintf(" %s |", formatCorr(m.Values[i][j])))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("Not enough aligned days for a correlation matrix.\n")
	}
	sb.WriteString("\n")

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.RunID))
	sb.WriteString(fmt.Sprintf("| Dataset ID | %s |\n", idhash.ShortID(r.DatasetID)))
	if r.Reproducibility.DataSource != "" {
		sb.WriteString(fmt.Sprintf("| Data Source | %s |\n", r.Reproducibility.DataSource))
	}
	sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", r.Reproducibility.GeneratorVersion))
	sb.WriteString("\n")
	if r.Reproducibility.ReplayCommand != "" {
		sb.WriteString("Re-test the exported dataset:\n\n")
		sb.WriteString("```\n" + r.Reproducibility.ReplayCommand + "\n```\n")
	}

	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatCorr(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
