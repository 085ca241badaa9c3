package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-lab/internal/storage"
)

// seedRecord inserts a row directly; the store itself is read-only.
func seedRecord(t *testing.T, ctx context.Context, pool *Pool, ts time.Time, text *string) {
	t.Helper()
	_, err := pool.Exec(ctx, `INSERT INTO text_records (ts, text, source) VALUES ($1, $2, 'test')`, ts, text)
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestTextRecordStore_GetAll(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewTextRecordStore(pool)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	seedRecord(t, ctx, pool, base.Add(time.Hour), strPtr("second"))
	seedRecord(t, ctx, pool, base, strPtr("first"))
	seedRecord(t, ctx, pool, base.Add(2*time.Hour), nil)

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "first", records[0].Text.String)
	assert.True(t, records[0].Text.Valid)
	assert.Equal(t, base, records[0].Timestamp)
	assert.Equal(t, "test", records[0].Source)
	assert.NotZero(t, records[0].ID)

	// NULL text scans as an invalid null.String.
	assert.False(t, records[2].Text.Valid)
	assert.False(t, records[2].Text.Valid)
}

func TestTextRecordStore_GetByTimeRange(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewTextRecordStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		seedRecord(t, ctx, pool, base.AddDate(0, 0, i), strPtr("day"))
	}

	records, err := store.GetByTimeRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, base.AddDate(0, 0, 1), records[0].Timestamp)
	assert.Equal(t, base.AddDate(0, 0, 3), records[2].Timestamp)
}

func TestTextRecordStore_GetGlobalTimeRange(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewTextRecordStore(pool)

	_, _, err := store.GetGlobalTimeRange(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	seedRecord(t, ctx, pool, late, strPtr("late"))
	seedRecord(t, ctx, pool, early, strPtr("early"))

	start, end, err := store.GetGlobalTimeRange(ctx)
	require.NoError(t, err)
	assert.Equal(t, early, start)
	assert.Equal(t, late, end)
}
