// Package sentiment maps short texts to a polarity score in [-1, 1].
package sentiment

import (
	"math"
	"unicode/utf8"

	"github.com/guregu/null/v6"
	"github.com/jonreiter/govader"
)

// NeutralScore is assigned to records whose text cannot be analyzed.
const NeutralScore = 0.0

// Analyzer is a sentiment backend returning a compound polarity for a text.
type Analyzer interface {
	Compound(text string) float64
}

// Scorer scores a possibly-missing text.
type Scorer interface {
	// Score returns the polarity of text and whether the neutral fallback was used.
	Score(text null.String) (score float64, fallback bool)
}

// VaderAnalyzer is the lexicon/rule-based VADER backend.
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderAnalyzer loads the VADER lexicon.
func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns VADER's normalized compound score.
func (v *VaderAnalyzer) Compound(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}

// TextScorer applies an Analyzer with the fallback rules for unusable input.
type TextScorer struct {
	analyzer Analyzer
	clean    bool
}

// Option configures a TextScorer.
type Option func(*TextScorer)

// WithCleaning strips URLs and mentions before analysis.
func WithCleaning(enabled bool) Option {
	return func(s *TextScorer) {
		s.clean = enabled
	}
}

// NewScorer wraps analyzer. A nil analyzer selects VADER.
func NewScorer(analyzer Analyzer, opts ...Option) *TextScorer {
	if analyzer == nil {
		analyzer = NewVaderAnalyzer()
	}
	s := &TextScorer{analyzer: analyzer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
// Missing or non-UTF-8 text yields NeutralScore with fallback=true.
// A non-finite backend result is returned as NaN so callers can drop it.
func (s *TextScorer) Score(text null.String) (float64, bool) {
	if !text.Valid || !utf8.ValidString(text.String) {
		return NeutralScore, true
	}

	input := text.String
	if s.clean {
		input = CleanText(input)
	}

	score := s.analyzer.Compound(input)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return math.NaN(), false
	}
	return clamp(score), false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

var _ Scorer = (*TextScorer)(nil)
