// Package analysis derives descriptive tables from the aligned series:
// the correlation matrix across market and sentiment columns and the
// smoothed sentiment trend.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"sentiment-lab/internal/domain"
)

// ErrTooFewRows is returned when a statistic needs more rows than provided.
var ErrTooFewRows = errors.New("too few rows")

// CorrelationFields are the columns of the default correlation matrix.
var CorrelationFields = []domain.Field{
	domain.FieldClose,
	domain.FieldVolume,
	domain.FieldVolatility,
	domain.FieldSentimentScore,
	domain.FieldRecordVolume,
}

// CorrelationMatrix holds pairwise Pearson correlations.
// A column with zero variance correlates as NaN with everything, itself included.
type CorrelationMatrix struct {
	Fields []domain.Field
	Values [][]float64
	Rows   int
}

// At returns the correlation between two fields.
func (m *CorrelationMatrix) At(a, b domain.Field) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

func (m *CorrelationMatrix) index(f domain.Field) int {
	for i, g := range m.Fields {
		if g == f {
			return i
		}
	}
	return -1
}

// Correlate computes the Pearson correlation matrix of fields over rows.
func Correlate(rows []domain.AlignedRow, fields []domain.Field) (*CorrelationMatrix, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("correlate: no fields")
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("correlate: %w: need 2, have %d", ErrTooFewRows, len(rows))
	}

	data := mat.NewDense(len(rows), len(fields), nil)
	for j, f := range fields {
		col, err := domain.Column(rows, f)
		if err != nil {
			return nil, fmt.Errorf("correlate: %w", err)
		}
		data.SetCol(j, col)
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)

	values := make([][]float64, len(fields))
	for i := range fields {
		values[i] = make([]float64, len(fields))
		for j := range fields {
			values[i][j] = corr.At(i, j)
		}
	}

	return &CorrelationMatrix{
		Fields: append([]domain.Field(nil), fields...),
		Values: values,
		Rows:   len(rows),
	}, nil
}
