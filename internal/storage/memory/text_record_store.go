package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

// TextRecordStore is an in-memory implementation of storage.TextRecordStore.
type TextRecordStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.TextRecord // keyed by id
	nextID int64
}

// NewTextRecordStore creates a new in-memory text record store.
func NewTextRecordStore() *TextRecordStore {
	return &TextRecordStore{
		data:   make(map[int64]*domain.TextRecord),
		nextID: 1,
	}
}

// InsertBulk adds multiple records. Records with ID 0 get the next free id.
// Fails entire batch on a duplicate explicit id.
func (s *TextRecordStore) InsertBulk(_ context.Context, records []*domain.TextRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		if r.ID == 0 {
			continue
		}
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range records {
		recordCopy := *r
		if recordCopy.ID == 0 {
			for {
				if _, taken := s.data[s.nextID]; !taken {
					if _, reserved := batchKeys[s.nextID]; !reserved {
						break
					}
				}
				s.nextID++
			}
			recordCopy.ID = s.nextID
			s.nextID++
		}
		s.data[recordCopy.ID] = &recordCopy
	}

	return nil
}

// GetAll retrieves all records, ordered by timestamp ASC, id ASC.
func (s *TextRecordStore) GetAll(_ context.Context) ([]*domain.TextRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TextRecord, 0, len(s.data))
	for _, r := range s.data {
		recordCopy := *r
		result = append(result, &recordCopy)
	}
	sortRecords(result)

	return result, nil
}

// GetByTimeRange retrieves records within [start, end] (inclusive).
func (s *TextRecordStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.TextRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TextRecord
	for _, r := range s.data {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}
	sortRecords(result)

	return result, nil
}

// GetGlobalTimeRange returns min and max timestamps across all records.
func (s *TextRecordStore) GetGlobalTimeRange(_ context.Context) (start, end time.Time, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return start, end, storage.ErrNotFound
	}

	first := true
	for _, r := range s.data {
		if first || r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if first || r.Timestamp.After(end) {
			end = r.Timestamp
		}
		first = false
	}

	return start, end, nil
}

func sortRecords(records []*domain.TextRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
}

var _ storage.TextRecordStore = (*TextRecordStore)(nil)
