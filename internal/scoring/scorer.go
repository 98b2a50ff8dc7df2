// Package scoring computes the bounded quality score of a normalized
// transcript.
package scoring

import (
	"math"
	"strings"

	"call-quality-go/internal/textnorm"
	"call-quality-go/internal/types"
)

// Config holds the additive terms of the score. Every term is listed; the
// scorer applies nothing else.
type Config struct {
	Base float64 `yaml:"base"`

	NegativeDelta float64 `yaml:"negative_delta"`
	PositiveDelta float64 `yaml:"positive_delta"`
	NeutralDelta  float64 `yaml:"neutral_delta"`

	ShortBelow   int     `yaml:"short_below"`
	ShortPenalty float64 `yaml:"short_penalty"`
	LongAbove    int     `yaml:"long_above"`
	LongPenalty  float64 `yaml:"long_penalty"`

	ComplaintKeywords []string `yaml:"complaint_keywords"`
	ComplaintPenalty  float64  `yaml:"complaint_penalty"`

	// EmptyDefault is returned as-is for empty text.
	EmptyDefault float64 `yaml:"empty_default"`

	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func DefaultConfig() Config {
	return Config{
		Base:              60,
		NegativeDelta:     -30,
		PositiveDelta:     15,
		NeutralDelta:      0,
		ShortBelow:        50,
		ShortPenalty:      -15,
		LongAbove:         800,
		LongPenalty:       -5,
		ComplaintKeywords: []string{"damage", "broken", "refund", "cancel", "wrong"},
		ComplaintPenalty:  -12,
		EmptyDefault:      50,
		Min:               0,
		Max:               100,
	}
}

// Breakdown lists each term that contributed to a score.
type Breakdown struct {
	Base           float64  `json:"base"`
	Sentiment      float64  `json:"sentiment"`
	Length         float64  `json:"length"`
	Complaints     float64  `json:"complaints"`
	ComplaintWords []string `json:"complaint_words,omitempty"`
	Empty          bool     `json:"empty,omitempty"`
	Score          float64  `json:"score"`
}

type Scorer struct {
	cfg        Config
	complaints textnorm.Keywords
}

func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, complaints: textnorm.NewKeywords(cfg.ComplaintKeywords...)}
}

// Score returns the quality score in [Min, Max], rounded to one decimal.
func (s *Scorer) Score(text string, label types.Sentiment) float64 {
	return s.Explain(text, label).Score
}

// Explain is Score with the individual contributions exposed.
func (s *Scorer) Explain(text string, label types.Sentiment) Breakdown {
	if strings.TrimSpace(text) == "" {
		return Breakdown{Empty: true, Score: s.clamp(round1(s.cfg.EmptyDefault))}
	}

	b := Breakdown{Base: s.cfg.Base}

	switch label {
	case types.Negative:
		b.Sentiment = s.cfg.NegativeDelta
	case types.Positive:
		b.Sentiment = s.cfg.PositiveDelta
	default:
		b.Sentiment = s.cfg.NeutralDelta
	}

	// Length is measured in characters, not bytes.
	n := len([]rune(text))
	switch {
	case n < s.cfg.ShortBelow:
		b.Length = s.cfg.ShortPenalty
	case n > s.cfg.LongAbove:
		b.Length = s.cfg.LongPenalty
	}

	b.ComplaintWords = s.complaints.Present(text)
	b.Complaints = float64(len(b.ComplaintWords)) * s.cfg.ComplaintPenalty

	b.Score = s.clamp(round1(b.Base + b.Sentiment + b.Length + b.Complaints))
	return b
}

func (s *Scorer) clamp(v float64) float64 {
	return math.Max(s.cfg.Min, math.Min(s.cfg.Max, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
