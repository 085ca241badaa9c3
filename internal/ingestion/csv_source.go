package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"sentiment-lab/internal/domain"
)

// Default CSV column names and sampling seed.
const (
	DefaultDateColumn = "date"
	DefaultTextColumn = "text"
	DefaultSampleSeed = 42
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// timestampLayouts are tried in order; values without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadStats describes what a CSV load kept and dropped.
type LoadStats struct {
	Rows      int // data rows read
	BadDates  int // rows dropped for an unparseable timestamp
	Malformed int // rows dropped for a short or broken line
	Outside   int // rows dropped for falling outside the window
	Kept      int // records returned after sampling
}

// CSVRecordSource reads text records from a delimited file with a header row.
type CSVRecordSource struct {
	path           string
	dateColumn     string
	textColumn     string
	sampleFraction float64
	seed           uint64
	start, end     time.Time
	log            zerolog.Logger
	stats          LoadStats
}

// CSVOption configures CSVRecordSource.
type CSVOption func(*CSVRecordSource)

// WithColumns overrides the timestamp and text column names.
func WithColumns(date, text string) CSVOption {
	return func(s *CSVRecordSource) {
		s.dateColumn = date
		s.textColumn = text
	}
}

// WithSample keeps a deterministic random fraction of the parsed rows.
// A fraction outside (0, 1) keeps every row.
func WithSample(fraction float64, seed uint64) CSVOption {
	return func(s *CSVRecordSource) {
		s.sampleFraction = fraction
		s.seed = seed
	}
}

// WithCSVWindow keeps rows with timestamps within [start, end], applied
// before sampling. A zero bound is open.
func WithCSVWindow(start, end time.Time) CSVOption {
	return func(s *CSVRecordSource) {
		s.start = start
		s.end = end
	}
}

// WithCSVLogger sets the logger.
func WithCSVLogger(log zerolog.Logger) CSVOption {
	return func(s *CSVRecordSource) {
		s.log = log.With().Str("source", "csv").Logger()
	}
}

// NewCSVRecordSource creates a source for the file at path.
func NewCSVRecordSource(path string, opts ...CSVOption) *CSVRecordSource {
	s := &CSVRecordSource{
		path:       path,
		dateColumn: DefaultDateColumn,
		textColumn: DefaultTextColumn,
		seed:       DefaultSampleSeed,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records implements RecordSource.
func (s *CSVRecordSource) Records(ctx context.Context) ([]*domain.TextRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	return s.Read(ctx, f)
}

// Stats returns the counters of the last load.
func (s *CSVRecordSource) Stats() LoadStats {
	return s.stats
}

// Read parses records from r. Rows whose timestamp cannot be parsed are
// dropped; an empty text cell yields a record with invalid Text. The result
// is sampled (when configured) and sorted by timestamp.
func (s *CSVRecordSource) Read(ctx context.Context, r io.Reader) ([]*domain.TextRecord, error) {
	s.stats = LoadStats{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []*domain.TextRecord{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateIdx, textIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case strings.ToLower(s.dateColumn):
			dateIdx = i
		case strings.ToLower(s.textColumn):
			textIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, s.dateColumn)
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, s.textColumn)
	}

	var records []*domain.TextRecord
	for {
		if s.stats.Rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.stats.Rows++
				s.stats.Malformed++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		s.stats.Rows++

		if dateIdx >= len(row) {
			s.stats.Malformed++
			continue
		}
		ts, ok := parseTimestamp(row[dateIdx])
		if !ok {
			s.stats.BadDates++
			continue
		}
		if (!s.start.IsZero() && ts.Before(s.start)) || (!s.end.IsZero() && ts.After(s.end)) {
			s.stats.Outside++
			continue
		}

		var text null.String
		if textIdx < len(row) && row[textIdx] != "" {
			text = null.StringFrom(row[textIdx])
		}

		records = append(records, &domain.TextRecord{
			Timestamp: ts,
			Text:      text,
			Source:    "csv",
		})
	}

	records = sample(records, s.sampleFraction, s.seed)
	SortRecords(records)
	s.stats.Kept = len(records)

	s.log.Info().
		Str("path", s.path).
		Int("rows", s.stats.Rows).
		Int("bad_dates", s.stats.BadDates).
		Int("malformed", s.stats.Malformed).
		Int("outside_window", s.stats.Outside).
		Int("kept", s.stats.Kept).
		Msg("loaded text records")

	return records, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// sample keeps round(fraction*n) records chosen with a seeded permutation,
// preserving their relative order.
func sample(records []*domain.TextRecord, fraction float64, seed uint64) []*domain.TextRecord {
	if fraction <= 0 || fraction >= 1 || len(records) == 0 {
		return records
	}

	n := int(math.Round(fraction * float64(len(records))))
	rng := rand.New(rand.NewPCG(seed, seed))
	idx := rng.Perm(len(records))[:n]
	sort.Ints(idx)

	out := make([]*domain.TextRecord, n)
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

var _ RecordSource = (*CSVRecordSource)(nil)
