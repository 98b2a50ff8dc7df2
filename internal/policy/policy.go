// Package policy decides whether a scored call needs human review and why.
package policy

import (
	"strings"

	"call-quality-go/internal/types"
)

// DefaultThreshold is the review cutoff used when a caller supplies none.
const DefaultThreshold = 70.0

// Decision is the outcome of one policy evaluation.
type Decision struct {
	NeedsReview bool
	Flags       []types.ReviewFlag
}

// FlagString renders flags comma-separated in evaluation order, or "OK".
func (d Decision) FlagString() string {
	if len(d.Flags) == 0 {
		return types.FlagsOK
	}
	parts := make([]string, len(d.Flags))
	for i, f := range d.Flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

// Has reports whether flag fired.
func (d Decision) Has(flag types.ReviewFlag) bool {
	for _, f := range d.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Decide flags the call when score < threshold. Each flag is evaluated
// independently: LOW_SCORE first, then NEG_SENTIMENT. NEG_SENTIMENT follows
// the label alone, so a NEGATIVE call above a permissive threshold carries
// that flag with NeedsReview false; flags are not only set when review is needed.
func Decide(score float64, label types.Sentiment, threshold float64) Decision {
	d := Decision{NeedsReview: score < threshold}
	if score < threshold {
		d.Flags = append(d.Flags, types.FlagLowScore)
	}
	if label == types.Negative {
		d.Flags = append(d.Flags, types.FlagNegSentiment)
	}
	return d
}

// ParseFlags is the inverse of Decision.FlagString.
func ParseFlags(s string) []types.ReviewFlag {
	s = strings.TrimSpace(s)
	if s == "" || s == types.FlagsOK {
		return nil
	}
	var out []types.ReviewFlag
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, types.ReviewFlag(p))
		}
	}
	return out
}
