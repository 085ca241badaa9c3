// Package causality implements the multi-lag Granger causality test.
//
// For each lag k the target y is regressed on a constant and its own k lags
// (restricted model), then additionally on k lags of the predictor x
// (unrestricted model). The reduction in residual sum of squares is tested
// with the SSR-based F test; chi-squared and likelihood-ratio variants are
// reported alongside.
package causality

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"sentiment-lab/internal/domain"
)

// Tester runs Granger causality tests.
type Tester struct {
	log zerolog.Logger
}

// Option configures a Tester.
type Option func(*Tester)

// WithLogger sets the logger used for per-lag diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tester) {
		t.log = log.With().Str("component", "causality").Logger()
	}
}

// NewTester creates a Tester.
func NewTester(opts ...Option) *Tester {
	t := &Tester{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MinObservations returns the smallest series length that can be tested at lag k.
func MinObservations(k int) int {
	return 3*k + 2
}

// Test asks whether predictor Granger-causes target over rows, for lags 1..maxLag.
//
// Request-level problems are returned as errors with no results. Otherwise
// exactly maxLag results are returned in increasing lag order; a lag that
// cannot be computed carries an *InsufficientDataError in its Err field and
// does not affect the other lags.
func (t *Tester) Test(rows []domain.AlignedRow, predictor, target domain.Field, maxLag int) ([]domain.CausalityResult, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxLag, maxLag)
	}
	if len(rows) == 0 {
		t.log.Warn().Msg("causality test skipped: empty aligned series")
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			return nil, fmt.Errorf("%w: %s followed by %s", ErrUnorderedSeries, rows[i-1].Date, rows[i].Date)
		}
	}

	x, err := domain.Column(rows, predictor)
	if err != nil {
		return nil, fmt.Errorf("%w: predictor %q", ErrUnknownField, predictor)
	}
	y, err := domain.Column(rows, target)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q", ErrUnknownField, target)
	}

	return t.TestSeries(x, y, maxLag)
}

// TestSeries runs the test on raw, already ordered columns.
func (t *Tester) TestSeries(x, y []float64, maxLag int) ([]domain.CausalityResult, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxLag, maxLag)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(y) == 0 {
		return nil, ErrEmptySeries
	}

	finite := allFinite(x) && allFinite(y)

	results := make([]domain.CausalityResult, maxLag)
	for k := 1; k <= maxLag; k++ {
		var res domain.CausalityResult
		if !finite {
			res = domain.CausalityResult{Lag: k, Err: &InsufficientDataError{Lag: k, Observations: len(y), Reason: "non-finite values in series"}}
		} else {
			res = testLag(x, y, k)
		}
		if res.Err != nil {
			t.log.Warn().Int("lag", k).Err(res.Err).Msg("lag test failed")
		} else {
			t.log.Debug().
				Int("lag", k).
				Float64("f", res.FStatistic).
				Float64("p", res.PValue).
				Int("df_denom", res.DFDenom).
				Msg("lag tested")
		}
		results[k-1] = res
	}

	return results, nil
}

// exactFitTolerance is the SSR/TSS ratio below which the unrestricted model
// is treated as an exact fit and the F statistic as undefined.
const exactFitTolerance = 1e-14

// testLag computes the SSR-based tests at a single lag.
func testLag(x, y []float64, k int) domain.CausalityResult {
	n := len(y)
	res := domain.CausalityResult{Lag: k, DFNum: k}

	if n < MinObservations(k) {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Required: MinObservations(k) - 1, Reason: "too few observations"}
		return res
	}

	nobs := n - k
	dfDenom := nobs - 2*k - 1
	if dfDenom <= 0 {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "no residual degrees of freedom"}
		return res
	}

	tss := centeredSS(y[k:])
	if tss == 0 {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "target is constant"}
		return res
	}

	target := mat.NewVecDense(nobs, append([]float64(nil), y[k:]...))
	restricted := lagDesign(y, nil, k)
	unrestricted := lagDesign(y, x, k)

	ssrR, err := residualSS(restricted, target)
	if err != nil {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "restricted model: " + err.Error()}
		return res
	}
	ssrU, err := residualSS(unrestricted, target)
	if err != nil {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "unrestricted model: " + err.Error()}
		return res
	}
	if ssrU <= exactFitTolerance*tss {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "unrestricted model fits exactly"}
		return res
	}

	gain := math.Max(ssrR-ssrU, 0)
	f := (gain / ssrU) / float64(k) * float64(dfDenom)
	chi2 := float64(nobs) * gain / ssrU
	lr := float64(nobs) * math.Log(math.Max(ssrR, ssrU)/ssrU)

	if !isFinite(f) || !isFinite(chi2) || !isFinite(lr) {
		res.Err = &InsufficientDataError{Lag: k, Observations: n, Reason: "non-finite test statistic"}
		return res
	}

	fDist := distuv.F{D1: float64(k), D2: float64(dfDenom)}
	chiDist := distuv.ChiSquared{K: float64(k)}

	res.FStatistic = f
	res.PValue = clampProb(fDist.Survival(f))
	res.DFDenom = dfDenom
	res.Chi2 = chi2
	res.Chi2PValue = clampProb(chiDist.Survival(chi2))
	res.LR = lr
	res.LRPValue = clampProb(chiDist.Survival(lr))
	res.Obs = nobs
	return res
}

// lagDesign builds the regressor matrix for observations t = k..n-1:
// a constant, y[t-1..t-k] and, when x is non-nil, x[t-1..t-k].
// Only past values enter a row.
func lagDesign(y, x []float64, k int) *mat.Dense {
	n := len(y)
	nobs := n - k
	cols := 1 + k
	if x != nil {
		cols += k
	}

	data := make([]float64, 0, nobs*cols)
	for t := k; t < n; t++ {
		data = append(data, 1)
		for j := 1; j <= k; j++ {
			data = append(data, y[t-j])
		}
		if x != nil {
			for j := 1; j <= k; j++ {
				data = append(data, x[t-j])
			}
		}
	}
	return mat.NewDense(nobs, cols, data)
}

// maxCondition bounds the condition number of the column-equilibrated design.
const maxCondition = 1e10

// residualSS fits b by least squares through a QR factorization and returns ||y - Ab||^2.
// Columns are scaled to unit max-norm first, which leaves the fit unchanged
// but makes the conditioning check independent of column units. A singular
// or ill-conditioned design yields an error.
func residualSS(a *mat.Dense, y *mat.VecDense) (float64, error) {
	rows, cols := a.Dims()
	scaled := mat.DenseCopyOf(a)
	for j := 0; j < cols; j++ {
		var m float64
		for i := 0; i < rows; i++ {
			m = math.Max(m, math.Abs(scaled.At(i, j)))
		}
		if m == 0 {
			return 0, fmt.Errorf("singular design: column %d is all zeros", j)
		}
		for i := 0; i < rows; i++ {
			scaled.Set(i, j, scaled.At(i, j)/m)
		}
	}

	var qr mat.QR
	qr.Factorize(scaled)
	if cond := qr.Cond(); math.IsNaN(cond) || cond > maxCondition {
		return 0, fmt.Errorf("singular design: condition number %.3g", cond)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return 0, fmt.Errorf("singular design: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(scaled, &beta)

	var resid mat.VecDense
	resid.SubVec(y, &fitted)

	ssr := mat.Dot(&resid, &resid)
	if !isFinite(ssr) {
		return 0, fmt.Errorf("non-finite residual sum of squares")
	}
	return ssr, nil
}

// centeredSS returns the total sum of squares of v around its mean.
func centeredSS(v []float64) float64 {
	mean := stat.Mean(v, nil)
	var ss float64
	for _, f := range v {
		ss += (f - mean) * (f - mean)
	}
	return ss
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if !isFinite(f) {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampProb(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
