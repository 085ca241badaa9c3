package domain

import (
	"time"

	"github.com/guregu/null/v6"
)

// TextRecord is a single timestamped short text item (post, message, headline).
// Corresponds to text_records table in PostgreSQL.
type TextRecord struct {
	ID        int64       // surrogate id, zero for file-sourced records
	Timestamp time.Time   // publication time, any zone
	Text      null.String // invalid when the source value was missing or not text
	Source    string      // origin label: csv | postgres | fixtures
}

// ScoredRecord is a TextRecord reduced to its timestamp and sentiment score.
type ScoredRecord struct {
	Timestamp time.Time
	Score     float64 // in [-1, 1]; NaN marks a failed score
	Fallback  bool    // neutral score assigned because the text was unusable
}
