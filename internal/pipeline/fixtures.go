package pipeline

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/guregu/null/v6"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage/memory"
)

// Fixture dimensions.
const (
	FixtureDays     = 60
	FixtureBarDays  = 90
	FixtureSeed     = 42
	fixtureLeadDays = 20
)

// FixtureStart is the first day with fixture text records.
var FixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	positiveTexts = []string{
		"Huge rally today, love it!",
		"Great news for holders, very bullish",
		"Amazing breakout, best week in months",
		"Happy with these gains :)",
	}
	negativeTexts = []string{
		"Terrible crash, panic everywhere",
		"Awful dump, I lost so much",
		"This market is a disaster, very bad",
		"Hate this volatility, scary times",
	}
	neutralTexts = []string{
		"Price is sideways",
		"Checking the charts again",
		"Volume looks normal",
	}
)

// LoadFixtures populates stores with deterministic demonstration data:
// FixtureDays of text records and FixtureBarDays of daily bars for ticker,
// starting fixtureLeadDays before the first record so volatility is defined
// from the first record day. Absolute daily mood drives next-day price swings,
// so sentiment leads volatility by one day.
func LoadFixtures(ctx context.Context, records *memory.TextRecordStore, bars *memory.PriceBarStore, ticker string) error {
	rng := rand.New(rand.NewPCG(FixtureSeed, FixtureSeed))

	moods := make([]float64, FixtureDays)
	for d := range moods {
		moods[d] = rng.Float64()*2 - 1
	}

	if err := loadRecords(ctx, records, rng, moods); err != nil {
		return err
	}
	return loadBars(ctx, bars, rng, moods, ticker)
}

func loadRecords(ctx context.Context, store *memory.TextRecordStore, rng *rand.Rand, moods []float64) error {
	var out []*domain.TextRecord
	for d, mood := range moods {
		n := 5 + rng.IntN(6)
		for i := 0; i < n; i++ {
			ts := FixtureStart.AddDate(0, 0, d).Add(time.Duration(rng.IntN(24*60)) * time.Minute)

			var text null.String
			switch r := rng.Float64(); {
			case d%10 == 3 && i == 0:
				// missing text, scored neutral
			case r < (1+mood)/2*0.8:
				text = null.StringFrom(positiveTexts[rng.IntN(len(positiveTexts))])
			case r < 0.8:
				text = null.StringFrom(negativeTexts[rng.IntN(len(negativeTexts))])
			default:
				text = null.StringFrom(neutralTexts[rng.IntN(len(neutralTexts))])
			}

			out = append(out, &domain.TextRecord{
				Timestamp: ts,
				Text:      text,
				Source:    "fixtures",
			})
		}
	}
	return store.InsertBulk(ctx, out)
}

func loadBars(ctx context.Context, store *memory.PriceBarStore, rng *rand.Rand, moods []float64, ticker string) error {
	start := FixtureStart.AddDate(0, 0, -fixtureLeadDays)
	price := 40000.0
	out := make([]*domain.PriceBar, FixtureBarDays)

	for d := 0; d < FixtureBarDays; d++ {
		swing := 0.01
		// Yesterday's mood, relative to the bar series.
		if m := d - fixtureLeadDays - 1; m >= 0 && m < len(moods) {
			swing += 0.04 * math.Abs(moods[m])
		}
		ret := swing * (rng.Float64()*2 - 1)

		open := price
		price *= 1 + ret
		out[d] = &domain.PriceBar{
			Ticker:   ticker,
			Date:     start.AddDate(0, 0, d),
			Open:     open,
			High:     math.Max(open, price) * 1.005,
			Low:      math.Min(open, price) * 0.995,
			Close:    price,
			AdjClose: price,
			Volume:   1e9 * (1 + rng.Float64()),
		}
	}
	return store.InsertBulk(ctx, out)
}
