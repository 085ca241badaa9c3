// Package alignment joins the daily sentiment series with daily market data.
package alignment

import (
	"cloud.google.com/go/civil"

	"sentiment-lab/internal/domain"
)

// Align inner-joins sentiment and market rows on calendar date.
//
// Market dates are reduced to the wall-clock date in their own zone, so a
// midnight-UTC bar and a midnight-local bar for the same day both land on
// that day. Only dates present in both inputs are emitted, ascending, with no
// fill. When two market rows normalize to the same date the later one in
// input order wins.
func Align(sentiment domain.DailySentimentSeries, market []domain.DailyMarket) []domain.AlignedRow {
	byDate := make(map[civil.Date]domain.DailyMarket, len(market))
	for _, m := range market {
		byDate[civil.DateOf(m.Date)] = m
	}

	rows := make([]domain.AlignedRow, 0, min(len(sentiment), len(byDate)))
	for _, date := range sentiment.Dates() {
		m, ok := byDate[date]
		if !ok {
			continue
		}
		s := sentiment[date]
		rows = append(rows, domain.AlignedRow{
			Date:           date,
			SentimentScore: s.MeanScore,
			RecordVolume:   s.RecordCount,
			Close:          m.Close,
			Volume:         m.Volume,
			Return:         m.Return,
			Volatility:     m.Volatility,
		})
	}

	return rows
}

// Coverage describes how much of each input survived the join.
type Coverage struct {
	SentimentDays int
	MarketDays    int
	AlignedDays   int
	First         civil.Date
	Last          civil.Date
}

// Summarize reports join coverage for diagnostics.
func Summarize(sentiment domain.DailySentimentSeries, market []domain.DailyMarket, rows []domain.AlignedRow) Coverage {
	dates := make(map[civil.Date]struct{}, len(market))
	for _, m := range market {
		dates[civil.DateOf(m.Date)] = struct{}{}
	}

	c := Coverage{
		SentimentDays: len(sentiment),
		MarketDays:    len(dates),
		AlignedDays:   len(rows),
	}
	if len(rows) > 0 {
		c.First = rows[0].Date
		c.Last = rows[len(rows)-1].Date
	}
	return c
}
