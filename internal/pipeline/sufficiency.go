package pipeline

import (
	"fmt"

	"cloud.google.com/go/civil"

	"sentiment-lab/internal/causality"
	"sentiment-lab/internal/orchestrator"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates that a run had enough data for its verdict.
type SufficiencyChecker struct {
	minRecords int
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker() *SufficiencyChecker {
	return &SufficiencyChecker{minRecords: 1}
}

// WithMinRecords sets the minimum number of loaded text records.
func (c *SufficiencyChecker) WithMinRecords(n int) *SufficiencyChecker {
	c.minRecords = n
	return c
}

// Check performs the sufficiency checks against a finished (possibly partial) run.
// Every day-count check needs enough observations to test the largest lag.
func (c *SufficiencyChecker) Check(run *orchestrator.RunResult) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 4),
		AllPass: true,
		Errors:  []string{},
	}
	minDays := causality.MinObservations(run.MaxLag)

	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: Text records loaded
	add(SufficiencyCheck{
		Name:      "Text records",
		Threshold: fmt.Sprintf(">= %d", c.minRecords),
		Actual:    fmt.Sprintf("%d", run.Records),
		Pass:      run.Records >= c.minRecords,
	})

	// Check 2: Days with sentiment
	sentimentDays := len(run.Sentiment)
	add(SufficiencyCheck{
		Name:      "Sentiment days",
		Threshold: fmt.Sprintf(">= %d", minDays),
		Actual:    fmt.Sprintf("%d", sentimentDays),
		Pass:      sentimentDays >= minDays,
	})

	// Check 3: Market days with a full volatility window
	add(SufficiencyCheck{
		Name:      "Market days",
		Threshold: fmt.Sprintf(">= %d", minDays),
		Actual:    fmt.Sprintf("%d", len(run.Market)),
		Pass:      len(run.Market) >= minDays,
	})

	// Check 4: Aligned days
	add(SufficiencyCheck{
		Name:      "Aligned days",
		Threshold: fmt.Sprintf(">= %d (lag %d)", minDays, run.MaxLag),
		Actual:    fmt.Sprintf("%d", len(run.Rows)),
		Pass:      len(run.Rows) >= minDays,
	})

	// Integrity: loaded records in (timestamp, id) order
	if run.RecordOrder != nil {
		result.AllPass = false
		result.Errors = append(result.Errors, run.RecordOrder.Error())
	}

	// Integrity: aligned dates strictly ascending
	if errs := checkAlignedOrder(run); len(errs) > 0 {
		result.AllPass = false
		result.Errors = append(result.Errors, errs...)
	}

	return result
}

func checkAlignedOrder(run *orchestrator.RunResult) []string {
	var errs []string
	var prev civil.Date
	for i, r := range run.Rows {
		if i > 0 && !prev.Before(r.Date) {
			errs = append(errs, fmt.Sprintf("aligned row %d: date %s not after %s", i, r.Date, prev))
		}
		prev = r.Date
	}
	return errs
}
