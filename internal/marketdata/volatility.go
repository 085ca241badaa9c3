// Package marketdata turns daily price bars into the market series used for alignment.
package marketdata

import (
	"errors"
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"sentiment-lab/internal/domain"
)

// DefaultVolatilityWindow is the rolling window, in trading days, for volatility.
const DefaultVolatilityWindow = 7

// ErrInvalidWindow is returned for a volatility window below 2.
var ErrInvalidWindow = errors.New("volatility window must be at least 2")

// BuildDailyMarket derives returns and rolling volatility from daily bars.
//
// Bars are ordered by date and bars without a positive close (after the
// adjusted-close fallback) are skipped. Return is the close-to-close
// fractional change; Volatility is the sample standard deviation of the last
// window returns. The first window bars have no complete window and are not
// emitted.
func BuildDailyMarket(bars []*domain.PriceBar, window int) ([]domain.DailyMarket, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}

	usable := make([]*domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b != nil && b.EffectiveClose() > 0 {
			usable = append(usable, b)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Date.Before(usable[j].Date)
	})

	if len(usable) <= window {
		return []domain.DailyMarket{}, nil
	}

	closes := make([]float64, len(usable))
	for i, b := range usable {
		closes[i] = b.EffectiveClose()
	}
	// Rocp leaves index 0 as zero; it is never part of a window below.
	returns := talib.Rocp(closes, 1)

	out := make([]domain.DailyMarket, 0, len(usable)-window)
	for i := window; i < len(usable); i++ {
		out = append(out, domain.DailyMarket{
			Date:       usable[i].Date,
			Close:      closes[i],
			Volume:     usable[i].Volume,
			Return:     returns[i],
			Volatility: stat.StdDev(returns[i-window+1:i+1], nil),
		})
	}
	return out, nil
}
