package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/storage"
)

// TextRecordStore implements storage.TextRecordStore using PostgreSQL.
type TextRecordStore struct {
	pool *Pool
}

// NewTextRecordStore creates a new TextRecordStore.
func NewTextRecordStore(pool *Pool) *TextRecordStore {
	return &TextRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TextRecordStore = (*TextRecordStore)(nil)

// GetAll retrieves all records, ordered by timestamp ASC, id ASC.
func (s *TextRecordStore) GetAll(ctx context.Context) ([]*domain.TextRecord, error) {
	query := `
		SELECT id, ts, text, source
		FROM text_records
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query text records: %w", err)
	}
	defer rows.Close()

	return scanTextRecords(rows)
}

// GetByTimeRange retrieves records within [start, end] (inclusive).
func (s *TextRecordStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TextRecord, error) {
	query := `
		SELECT id, ts, text, source
		FROM text_records
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query text records by time range: %w", err)
	}
	defer rows.Close()

	return scanTextRecords(rows)
}

// GetGlobalTimeRange returns min and max timestamps across all records.
// Returns ErrNotFound if the table is empty.
func (s *TextRecordStore) GetGlobalTimeRange(ctx context.Context) (start, end time.Time, err error) {
	query := `SELECT min(ts), max(ts) FROM text_records`

	var minTS, maxTS *time.Time
	if err := s.pool.QueryRow(ctx, query).Scan(&minTS, &maxTS); err != nil {
		if isNoRows(err) {
			return start, end, storage.ErrNotFound
		}
		return start, end, fmt.Errorf("query text record time range: %w", err)
	}
	if minTS == nil || maxTS == nil {
		return start, end, storage.ErrNotFound
	}

	return minTS.UTC(), maxTS.UTC(), nil
}

// scanTextRecords scans multiple rows into a slice.
func scanTextRecords(rows pgx.Rows) ([]*domain.TextRecord, error) {
	records := make([]*domain.TextRecord, 0)

	for rows.Next() {
		var r domain.TextRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Text, &r.Source); err != nil {
			return nil, fmt.Errorf("scan text record: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate text records: %w", err)
	}

	return records, nil
}
