package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-lab/internal/domain"
)

func barsFromCloses(closes ...float64) []*domain.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]*domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = &domain.PriceBar{
			Ticker: "BTC-USD",
			Date:   start.AddDate(0, 0, i),
			Close:  c,
			Volume: float64(1000 * (i + 1)),
		}
	}
	return bars
}

// sampleStd is a direct two-pass sample standard deviation.
func sampleStd(v []float64) float64 {
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	var ss float64
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(v)-1))
}

func TestBuildDailyMarket_RollingVolatility(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 103, 104, 108, 107, 110, 109}
	bars := barsFromCloses(closes...)

	market, err := BuildDailyMarket(bars, 3)
	require.NoError(t, err)
	require.Len(t, market, len(closes)-3)

	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		returns[i] = closes[i]/closes[i-1] - 1
	}

	for j, m := range market {
		i := j + 3
		assert.Equal(t, bars[i].Date, m.Date)
		assert.Equal(t, closes[i], m.Close)
		assert.Equal(t, bars[i].Volume, m.Volume)
		assert.InDelta(t, returns[i], m.Return, 1e-12)
		assert.InDelta(t, sampleStd(returns[i-2:i+1]), m.Volatility, 1e-12)
		assert.GreaterOrEqual(t, m.Volatility, 0.0)
	}
}

func TestBuildDailyMarket_DefaultWindowDropsFirstRows(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i%4)
	}

	market, err := BuildDailyMarket(barsFromCloses(closes...), DefaultVolatilityWindow)
	require.NoError(t, err)
	assert.Len(t, market, 20-DefaultVolatilityWindow)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), market[0].Date)
}

func TestBuildDailyMarket_TooFewBars(t *testing.T) {
	market, err := BuildDailyMarket(barsFromCloses(1, 2, 3), 7)
	require.NoError(t, err)
	assert.Empty(t, market)
}

func TestBuildDailyMarket_InvalidWindow(t *testing.T) {
	_, err := BuildDailyMarket(barsFromCloses(1, 2, 3), 1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestBuildDailyMarket_AdjCloseFallbackAndSkips(t *testing.T) {
	bars := barsFromCloses(100, 0, 102, 103, 104)
	bars[1].AdjClose = 101 // close missing, adjusted close present
	bars[3].Close = 0      // both missing: skipped

	// Unsorted input is ordered by date.
	bars[0], bars[4] = bars[4], bars[0]

	market, err := BuildDailyMarket(bars, 2)
	require.NoError(t, err)
	require.Len(t, market, 2)

	assert.Equal(t, 102.0, market[0].Close)
	assert.Equal(t, 104.0, market[1].Close)
	assert.InDelta(t, 104.0/102.0-1, market[1].Return, 1e-12)
}

func TestBuildDailyMarket_ConstantPriceZeroVolatility(t *testing.T) {
	market, err := BuildDailyMarket(barsFromCloses(50, 50, 50, 50, 50), 3)
	require.NoError(t, err)
	for _, m := range market {
		assert.Equal(t, 0.0, m.Volatility)
		assert.Equal(t, 0.0, m.Return)
	}
}
