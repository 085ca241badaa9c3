package ingestion

import (
	"errors"
	"testing"
	"time"

	"sentiment-lab/internal/domain"
)

func TestSortRecords(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Intentionally unordered records
	records := []*domain.TextRecord{
		{ID: 3, Timestamp: base.Add(2 * time.Hour)},
		{ID: 2, Timestamp: base},
		{ID: 1, Timestamp: base},
		{ID: 4, Timestamp: base.Add(time.Hour)},
	}

	SortRecords(records)

	expected := []int64{1, 2, 4, 3}
	for i, id := range expected {
		if records[i].ID != id {
			t.Errorf("Index %d: got id %d, want %d", i, records[i].ID, id)
		}
	}
}

func TestSortRecords_StableForEqualKeys(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*domain.TextRecord{
		{Timestamp: ts, Source: "a"},
		{Timestamp: ts, Source: "b"},
		{Timestamp: ts, Source: "c"},
	}

	SortRecords(records)

	if records[0].Source != "a" || records[1].Source != "b" || records[2].Source != "c" {
		t.Errorf("equal keys should keep input order, got %s%s%s",
			records[0].Source, records[1].Source, records[2].Source)
	}
}

func TestSortRecords_Empty(t *testing.T) {
	var records []*domain.TextRecord
	SortRecords(records) // Should not panic
}

func TestSortRecords_MixedZones(t *testing.T) {
	utc := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)
	// 18:00 JST is 09:00 UTC, before 10:00 UTC.
	earlier := time.Date(2024, 1, 1, 18, 0, 0, 0, tokyo)

	records := []*domain.TextRecord{{ID: 1, Timestamp: utc}, {ID: 2, Timestamp: earlier}}
	SortRecords(records)

	if records[0].ID != 2 {
		t.Errorf("expected instant ordering across zones, got id %d first", records[0].ID)
	}
}

func TestValidateRecordOrdering(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := []*domain.TextRecord{
		{ID: 1, Timestamp: base},
		{ID: 2, Timestamp: base},
		{ID: 1, Timestamp: base.Add(time.Minute)},
	}
	if err := ValidateRecordOrdering(valid); err != nil {
		t.Errorf("expected valid ordering, got %v", err)
	}

	invalid := []*domain.TextRecord{
		{ID: 1, Timestamp: base.Add(time.Minute)},
		{ID: 1, Timestamp: base},
	}
	if err := ValidateRecordOrdering(invalid); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}

	if err := ValidateRecordOrdering(nil); err != nil {
		t.Errorf("empty slice should be valid, got %v", err)
	}
}

func TestTimeRange(t *testing.T) {
	if _, _, ok := TimeRange(nil); ok {
		t.Error("expected ok=false for no records")
	}

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	records := []*domain.TextRecord{
		{Timestamp: early.AddDate(0, 0, 3)},
		{Timestamp: late},
		{Timestamp: early},
	}

	start, end, ok := TimeRange(records)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !start.Equal(early) || !end.Equal(late) {
		t.Errorf("got [%v, %v], want [%v, %v]", start, end, early, late)
	}
}
