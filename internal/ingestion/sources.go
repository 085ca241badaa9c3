package ingestion

import (
	"context"
	"time"

	"sentiment-lab/internal/domain"
)

// RecordSource provides the raw text records for one run.
type RecordSource interface {
	// Records returns all records. Records may be unordered; callers sort with SortRecords.
	Records(ctx context.Context) ([]*domain.TextRecord, error)
}

// PriceSource provides daily market bars.
type PriceSource interface {
	// DailyBars returns bars for ticker with open time within [start, end].
	DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error)
}
