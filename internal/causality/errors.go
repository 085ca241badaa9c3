package causality

import (
	"errors"
	"fmt"
)

// Errors returned by Test for the whole request.
var (
	// ErrInvalidMaxLag is returned when maxLag < 1.
	ErrInvalidMaxLag = errors.New("max lag must be at least 1")

	// ErrUnknownField is returned when a column name is not an aligned-series field.
	ErrUnknownField = errors.New("unknown field")

	// ErrEmptySeries is returned when the aligned series has no rows.
	ErrEmptySeries = errors.New("empty aligned series")

	// ErrUnorderedSeries is returned when rows are not strictly ascending by date.
	ErrUnorderedSeries = errors.New("aligned series is not strictly ascending by date")

	// ErrLengthMismatch is returned when predictor and target lengths differ.
	ErrLengthMismatch = errors.New("predictor and target lengths differ")
)

// ErrInsufficientData marks a lag whose test could not be computed.
// Per-lag failures are attached to CausalityResult.Err, never returned.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError explains why a single lag failed.
type InsufficientDataError struct {
	Lag          int
	Observations int // rows in the series
	Required     int // minimum rows for this lag, zero if not a size problem
	Reason       string
}

func (e *InsufficientDataError) Error() string {
	if e.Required > 0 {
		return fmt.Sprintf("lag %d: %s (have %d observations, need more than %d)",
			e.Lag, e.Reason, e.Observations, e.Required)
	}
	return fmt.Sprintf("lag %d: %s", e.Lag, e.Reason)
}

// Unwrap lets errors.Is match ErrInsufficientData.
func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}
