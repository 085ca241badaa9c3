package ingestion

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"sentiment-lab/internal/domain"
)

// ErrInvalidOrdering is returned when records are not in deterministic order.
var ErrInvalidOrdering = errors.New("records are not in deterministic order")

// SortRecords orders records by (timestamp ASC, id ASC). The sort is stable,
// so file-sourced records with equal timestamps keep their input order.
func SortRecords(records []*domain.TextRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return compareRecords(records[i], records[j]) < 0
	})
}

// ValidateRecordOrdering checks that records are non-decreasing by (timestamp, id).
func ValidateRecordOrdering(records []*domain.TextRecord) error {
	for i := 1; i < len(records); i++ {
		if compareRecords(records[i-1], records[i]) > 0 {
			return fmt.Errorf("%w: record %d sorts before record %d", ErrInvalidOrdering, i, i-1)
		}
	}
	return nil
}

// TimeRange returns the earliest and latest timestamps. ok is false for no records.
func TimeRange(records []*domain.TextRecord) (start, end time.Time, ok bool) {
	if len(records) == 0 {
		return start, end, false
	}
	start, end = records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	return start, end, true
}

// compareRecords returns negative, zero or positive as a orders before, with, or after b.
func compareRecords(a, b *domain.TextRecord) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
