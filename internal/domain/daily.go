package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// DailySentiment is the per-day aggregate of scored records.
type DailySentiment struct {
	Date        civil.Date // calendar day, no zone
	MeanScore   float64    // arithmetic mean of the day's valid scores
	RecordCount int        // records contributing to MeanScore
}

// DailySentimentSeries maps a calendar day to its aggregate.
// Days without records are absent, never zero-filled.
type DailySentimentSeries map[civil.Date]DailySentiment

// Dates returns the series keys in ascending order.
func (s DailySentimentSeries) Dates() []civil.Date {
	dates := make([]civil.Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// PriceBar is one daily OHLCV observation from a market data source.
// Corresponds to daily_bars table in ClickHouse.
type PriceBar struct {
	Ticker   string
	Date     time.Time // bar open time; may carry the exchange zone
	Open     float64
	High     float64
	Low      float64
	Close    float64 // zero when the source omitted it
	AdjClose float64 // zero when the source omitted it
	Volume   float64
}

// EffectiveClose returns Close, falling back to AdjClose when Close is missing.
func (b *PriceBar) EffectiveClose() float64 {
	if b.Close > 0 {
		return b.Close
	}
	return b.AdjClose
}

// DailyMarket holds the daily market metrics used for alignment.
type DailyMarket struct {
	Date       time.Time // may carry a zone; alignment strips it
	Close      float64   // > 0
	Volume     float64   // >= 0
	Return     float64   // close-to-close fractional change
	Volatility float64   // rolling sample stddev of Return, >= 0
}
