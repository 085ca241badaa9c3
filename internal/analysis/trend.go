package analysis

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"

	"sentiment-lab/internal/domain"
)

// DefaultTrendWindow is the moving-average length of the sentiment trend, in rows.
const DefaultTrendWindow = 7

// ErrInvalidWindow is returned for a non-positive window.
var ErrInvalidWindow = errors.New("window must be positive")

// SentimentTrend returns the trailing simple moving average of the daily
// sentiment score. Positions without a full window are NaN. The window counts
// aligned rows, not calendar days.
func SentimentTrend(rows []domain.AlignedRow, window int) ([]float64, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}

	scores := make([]float64, len(rows))
	for i := range rows {
		scores[i] = rows[i].SentimentScore
	}
	if window == 1 {
		return scores, nil
	}

	out := make([]float64, len(rows))
	if len(rows) < window {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	sma := talib.Sma(scores, window)
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sma[i]
	}
	return out, nil
}
