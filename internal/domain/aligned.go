package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Field names a numeric column of the aligned series.
type Field string

const (
	FieldSentimentScore Field = "sentiment_score"
	FieldRecordVolume   Field = "record_volume"
	FieldClose          Field = "close"
	FieldVolume         Field = "volume"
	FieldReturn         Field = "returns"
	FieldVolatility     Field = "volatility"
)

// AllFields lists every selectable column in export order.
var AllFields = []Field{
	FieldClose,
	FieldVolume,
	FieldReturn,
	FieldVolatility,
	FieldSentimentScore,
	FieldRecordVolume,
}

// ParseField validates a column name.
func ParseField(s string) (Field, error) {
	for _, f := range AllFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// AlignedRow is one day present in both the sentiment and market series.
type AlignedRow struct {
	Date           civil.Date
	SentimentScore float64
	RecordVolume   int
	Close          float64
	Volume         float64
	Return         float64
	Volatility     float64
}

// Value returns the row's value for the given field.
func (r *AlignedRow) Value(f Field) (float64, bool) {
	switch f {
	case FieldSentimentScore:
		return r.SentimentScore, true
	case FieldRecordVolume:
		return float64(r.RecordVolume), true
	case FieldClose:
		return r.Close, true
	case FieldVolume:
		return r.Volume, true
	case FieldReturn:
		return r.Return, true
	case FieldVolatility:
		return r.Volatility, true
	default:
		return 0, false
	}
}

// Column extracts one field across rows, preserving order.
func Column(rows []AlignedRow, f Field) ([]float64, error) {
	out := make([]float64, len(rows))
	for i := range rows {
		v, ok := rows[i].Value(f)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", f)
		}
		out[i] = v
	}
	return out, nil
}
