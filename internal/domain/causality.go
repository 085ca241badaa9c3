package domain

// CausalityResult is the outcome of the Granger test at one lag.
// A non-nil Err marks the lag as failed; the statistics are then zero.
type CausalityResult struct {
	Lag        int     // >= 1
	FStatistic float64 // SSR-based F
	PValue     float64 // in [0, 1]
	DFNum      int     // numerator degrees of freedom (= Lag)
	DFDenom    int     // residual degrees of freedom of the unrestricted model
	Chi2       float64 // SSR-based chi-squared
	Chi2PValue float64
	LR         float64 // likelihood ratio
	LRPValue   float64
	Obs        int // observations used after lag trimming
	Err        error
}

// Failed reports whether the test at this lag could not be computed.
func (r *CausalityResult) Failed() bool {
	return r.Err != nil
}

// Significant reports whether the lag rejects the null at the given alpha.
func (r *CausalityResult) Significant(alpha float64) bool {
	return !r.Failed() && r.PValue < alpha
}
