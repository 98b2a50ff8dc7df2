// Package sentiment labels normalized transcripts with a keyword-count
// heuristic. It is not a trained model; confidence is a strength indicator,
// not a probability.
package sentiment

import (
	"math"
	"strings"

	"call-quality-go/internal/textnorm"
	"call-quality-go/internal/types"
)

// Config holds the keyword sets and confidence curve of the classifier.
type Config struct {
	NegativeKeywords []string `yaml:"negative_keywords"`
	PositiveKeywords []string `yaml:"positive_keywords"`

	// NegativeRatio: NEGATIVE wins only when neg > pos*NegativeRatio.
	NegativeRatio float64 `yaml:"negative_ratio"`

	NegativeBase float64 `yaml:"negative_base"`
	NegativeStep float64 `yaml:"negative_step"`
	NegativeCap  float64 `yaml:"negative_cap"`

	PositiveBase float64 `yaml:"positive_base"`
	PositiveStep float64 `yaml:"positive_step"`
	PositiveCap  float64 `yaml:"positive_cap"`

	NeutralConfidence float64 `yaml:"neutral_confidence"`
}

// DefaultConfig returns the reference constants.
func DefaultConfig() Config {
	return Config{
		NegativeKeywords:  []string{"damage", "broken", "angry", "frustrated", "refund", "cancel", "wrong", "not working"},
		PositiveKeywords:  []string{"happy", "great", "perfect", "excellent", "thank"},
		NegativeRatio:     1.5,
		NegativeBase:      0.6,
		NegativeStep:      0.1,
		NegativeCap:       0.9,
		PositiveBase:      0.5,
		PositiveStep:      0.1,
		PositiveCap:       0.8,
		NeutralConfidence: 0.5,
	}
}

// Classifier is safe for concurrent use; it holds no mutable state.
type Classifier struct {
	cfg      Config
	negative textnorm.Keywords
	positive textnorm.Keywords
}

func New(cfg Config) *Classifier {
	return &Classifier{
		cfg:      cfg,
		negative: textnorm.NewKeywords(cfg.NegativeKeywords...),
		positive: textnorm.NewKeywords(cfg.PositiveKeywords...),
	}
}

// Classify returns the label and confidence for normalized text.
func (c *Classifier) Classify(text string) (types.Sentiment, float64) {
	if strings.TrimSpace(text) == "" {
		return types.Neutral, c.cfg.NeutralConfidence
	}
	neg := float64(c.negative.CountPresent(text))
	pos := float64(c.positive.CountPresent(text))

	switch {
	case neg > pos*c.cfg.NegativeRatio:
		return types.Negative, round2(math.Min(c.cfg.NegativeCap, c.cfg.NegativeBase+c.cfg.NegativeStep*neg))
	case pos > neg:
		return types.Positive, round2(math.Min(c.cfg.PositiveCap, c.cfg.PositiveBase+c.cfg.PositiveStep*pos))
	default:
		return types.Neutral, c.cfg.NeutralConfidence
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
