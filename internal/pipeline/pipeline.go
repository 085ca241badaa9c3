// Package pipeline turns a finished run into the exported dataset, the
// causality report and the decision report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"sentiment-lab/internal/analysis"
	"sentiment-lab/internal/decision"
	"sentiment-lab/internal/orchestrator"
	"sentiment-lab/internal/reporting"
)

// Data sources recorded in the reproducibility section.
const (
	DataSourceCSV      = "csv"
	DataSourceDB       = "db"
	DataSourceFixtures = "fixtures"
)

// ReportPipeline writes the output files of one run.
type ReportPipeline struct {
	reportGen          *reporting.Generator
	decisionEval       *decision.Evaluator
	sufficiencyChecker *SufficiencyChecker
	outputDir          string
	clock              func() time.Time
	integrityErrors    []string // additional integrity errors (e.g., from loading)
	dataSource         string
	trendWindow        int
	log                zerolog.Logger
}

// Outcome is what Run produced.
type Outcome struct {
	Report   *reporting.Report
	Decision *decision.DecisionResult
	Files    []string // written paths, in write order
}

// NewReportPipeline creates a pipeline writing into outputDir.
func NewReportPipeline(outputDir string) *ReportPipeline {
	return &ReportPipeline{
		reportGen:          reporting.NewGenerator(),
		decisionEval:       decision.NewEvaluator(),
		sufficiencyChecker: NewSufficiencyChecker(),
		outputDir:          outputDir,
		clock:              func() time.Time { return time.Now().UTC() },
		trendWindow:        analysis.DefaultTrendWindow,
		log:                zerolog.Nop(),
	}
}

// WithSufficiencyChecker replaces the default sufficiency checker.
func (p *ReportPipeline) WithSufficiencyChecker(c *SufficiencyChecker) *ReportPipeline {
	p.sufficiencyChecker = c
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithIntegrityErrors adds integrity errors to include in the report.
// Any integrity error fails the sufficiency gate.
func (p *ReportPipeline) WithIntegrityErrors(errors []string) *ReportPipeline {
	p.integrityErrors = append(p.integrityErrors, errors...)
	return p
}

// WithDataSource sets the data source for reproducibility metadata.
func (p *ReportPipeline) WithDataSource(source string) *ReportPipeline {
	p.dataSource = source
	return p
}

// WithLogger sets the logger.
func (p *ReportPipeline) WithLogger(log zerolog.Logger) *ReportPipeline {
	p.log = log.With().Str("component", "pipeline").Logger()
	return p
}

// Run writes the output files for run:
// - final_dataset.csv
// - causality_results.csv
// - correlation.csv (when at least two days aligned)
// - REPORT.md
// - DECISION_REPORT.md
func (p *ReportPipeline) Run(ctx context.Context, run *orchestrator.RunResult) (*Outcome, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	// 1. Sufficiency first; it gates the decision
	suff := p.sufficiencyChecker.Check(run)
	dataQuality := convertToDataQuality(suff)
	if len(p.integrityErrors) > 0 {
		dataQuality.IntegrityErrors = append(dataQuality.IntegrityErrors, p.integrityErrors...)
		dataQuality.AllChecksPassed = false
	}

	// 2. Report
	report, err := p.reportGen.Generate(run)
	if err != nil {
		return nil, err
	}
	report.DataQuality = dataQuality
	report.Reproducibility.DataSource = p.dataSource
	report.Reproducibility.ReplayCommand = p.buildReplayCommand(run)

	// 3. Decision
	result, err := p.decisionEval.Evaluate(decision.DecisionInput{
		Predictor:       run.Predictor,
		Target:          run.Target,
		Alpha:           run.Alpha,
		MaxLag:          run.MaxLag,
		Results:         run.Results,
		SufficiencyPass: dataQuality.AllChecksPassed,
		AlignedDays:     len(run.Rows),
	})
	if err != nil {
		return nil, err
	}

	trend, err := analysis.SentimentTrend(run.Rows, p.trendWindow)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Report: report, Decision: result}
	files := []struct {
		name    string
		content string
		skip    bool
	}{
		{reporting.DatasetFile, reporting.RenderDatasetCSV(run.Rows, trend), false},
		{reporting.CausalityFile, reporting.RenderCausalityCSV(report.Causality), false},
		{reporting.CorrelationFile, reporting.RenderCorrelationCSV(report.Correlation), report.Correlation == nil},
		{reporting.ReportFile, reporting.RenderMarkdown(report), false},
		{reporting.DecisionFile, p.renderDecisionReport(result, dataQuality), false},
	}
	for _, f := range files {
		if f.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(p.outputDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
	}

	p.log.Info().
		Str("decision", string(result.Decision)).
		Str("run_id", report.RunID).
		Str("output_dir", p.outputDir).
		Int("files", len(out.Files)).
		Msg("reports written")

	return out, nil
}

// buildReplayCommand returns the command that re-tests the exported dataset.
func (p *ReportPipeline) buildReplayCommand(run *orchestrator.RunResult) string {
	return fmt.Sprintf("go run ./cmd/causality --input %s --predictor %s --target %s --max-lag %d --alpha %g",
		filepath.Join(p.outputDir, reporting.DatasetFile), run.Predictor, run.Target, run.MaxLag, run.Alpha)
}

// renderDecisionReport prefixes the decision with a timestamp and, when the
// data was insufficient, the failed checks.
func (p *ReportPipeline) renderDecisionReport(result *decision.DecisionResult, dq reporting.DataQualitySection) string {
	var content string
	content += "Generated at: " + p.clock().Format("2006-01-02 15:04:05 UTC") + "\n\n"
	content += decision.RenderMarkdown(result)

	if result.Decision != decision.DecisionInsufficientData {
		return content
	}

	content += "\n### Sufficiency Checks\n\n"
	content += "| Check | Threshold | Actual | Status |\n"
	content += "|-------|-----------|--------|--------|\n"
	for _, check := range dq.SufficiencyChecks {
		status := "PASS"
		if !check.Pass {
			status = "FAIL"
		}
		content += "| " + check.Name + " | " + check.Threshold + " | " + check.Actual + " | " + status + " |\n"
	}
	content += "\n"

	if len(dq.IntegrityErrors) > 0 {
		content += "### Integrity Errors\n\n"
		for _, err := range dq.IntegrityErrors {
			content += "- " + err + "\n"
		}
		content += "\n"
	}

	content += "### Required Actions\n\n"
	content += "1. Collect more text records or widen the date range\n"
	content += "2. Lower --max-lag if the aligned series is short\n"
	content += "3. Re-run the pipeline\n"
	return content
}

// convertToDataQuality converts SufficiencyResult to reporting.DataQualitySection.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}
