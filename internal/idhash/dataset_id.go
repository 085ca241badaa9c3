package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"sentiment-lab/internal/domain"
)

// ComputeDatasetID computes a deterministic fingerprint of an aligned series using SHA256.
// Formula: SHA256 over one line per row: date|sentiment|record_volume|close|volume|returns|volatility
// Floats are written in shortest round-trip form. Returns hex-encoded hash (64 characters).
func ComputeDatasetID(rows []domain.AlignedRow) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%s|%s|%d|%s|%s|%s|%s\n",
			r.Date,
			formatFloat(r.SentimentScore),
			r.RecordVolume,
			formatFloat(r.Close),
			formatFloat(r.Volume),
			formatFloat(r.Return),
			formatFloat(r.Volatility),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortID truncates a hex id for display.
func ShortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
