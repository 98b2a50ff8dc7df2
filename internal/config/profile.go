package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"call-quality-go/internal/actionable"
	"call-quality-go/internal/policy"
	"call-quality-go/internal/scoring"
	"call-quality-go/internal/sentiment"
)

var ErrInvalidThreshold = errors.New("review threshold must be within [0,100]")

// Profile is the full set of heuristic constants behind a call assessment.
// DefaultProfile is the reference configuration.
type Profile struct {
	Name            string            `yaml:"name"`
	ReviewThreshold float64           `yaml:"review_threshold"`
	Sentiment       sentiment.Config  `yaml:"sentiment"`
	Scoring         scoring.Config    `yaml:"scoring"`
	Messages        actionable.Config `yaml:"messages"`
}

func DefaultProfile() Profile {
	return Profile{
		Name:            "reference",
		ReviewThreshold: policy.DefaultThreshold,
		Sentiment:       sentiment.DefaultConfig(),
		Scoring:         scoring.DefaultConfig(),
		Messages:        actionable.DefaultConfig(),
	}
}

// LoadProfile overlays the YAML file at path onto DefaultProfile. Keys absent
// from the file keep their defaults. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scoring profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse scoring profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("scoring profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) Validate() error {
	if err := ValidateThreshold(p.ReviewThreshold); err != nil {
		return err
	}
	sc := p.Scoring
	if sc.Min < 0 || sc.Max > 100 || sc.Min > sc.Max {
		return fmt.Errorf("scoring bounds [%.1f,%.1f] must satisfy 0 <= min <= max <= 100", sc.Min, sc.Max)
	}
	if sc.EmptyDefault < sc.Min || sc.EmptyDefault > sc.Max {
		return fmt.Errorf("scoring empty_default %.1f outside [%.1f,%.1f]", sc.EmptyDefault, sc.Min, sc.Max)
	}
	if len(p.Sentiment.NegativeKeywords) == 0 || len(p.Sentiment.PositiveKeywords) == 0 {
		return errors.New("sentiment keyword sets must not be empty")
	}
	if p.Messages.CallbackSLAHours <= 0 {
		return errors.New("callback_sla_hours must be positive")
	}
	return nil
}

func ValidateThreshold(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, v)
	}
	return nil
}
