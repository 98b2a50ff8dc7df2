// Package pipeline composes normalization, sentiment, scoring, review policy
// and message generation into one call assessment.
package pipeline

import (
	"math"
	"strings"
	"time"

	"call-quality-go/internal/actionable"
	"call-quality-go/internal/config"
	"call-quality-go/internal/policy"
	"call-quality-go/internal/scoring"
	"call-quality-go/internal/sentiment"
	"call-quality-go/internal/textnorm"
	"call-quality-go/internal/types"
)

// Pipeline has no mutable state and is safe for concurrent use.
type Pipeline struct {
	profile    config.Profile
	classifier *sentiment.Classifier
	scorer     *scoring.Scorer
	generator  *actionable.Generator
	now        func() time.Time
}

type Option func(*Pipeline)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(profile config.Profile, opts ...Option) *Pipeline {
	p := &Pipeline{
		profile:    profile,
		classifier: sentiment.New(profile.Sentiment),
		scorer:     scoring.New(profile.Scoring),
		generator:  actionable.New(profile.Messages),
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Profile returns the constants the pipeline was built with.
func (p *Pipeline) Profile() config.Profile { return p.profile }

// Process runs ProcessCall, falling back to the profile threshold when the
// request carries none.
func (p *Pipeline) Process(req types.CallRequest) types.CallRecord {
	threshold := p.profile.ReviewThreshold
	if req.ReviewThreshold != nil {
		threshold = *req.ReviewThreshold
	}
	return p.ProcessCall(req.Transcript, req.CallID, req.CustomerName, threshold)
}

// ProcessCall always returns a record; an empty transcript is scored as
// neutral absent data. Thresholds outside [0,100] are clamped.
func (p *Pipeline) ProcessCall(transcript, callID, customerName string, threshold float64) types.CallRecord {
	threshold = math.Max(0, math.Min(100, threshold))

	name := strings.TrimSpace(customerName)
	if name == "" {
		name = p.profile.Messages.DefaultCustomerName
	}

	clean := textnorm.Normalize(transcript)
	label, confidence := p.classifier.Classify(clean)
	score := p.scorer.Score(clean, label)
	decision := policy.Decide(score, label, threshold)

	rec := types.CallRecord{
		Timestamp:           p.now(),
		CallID:              callID,
		CustomerName:        name,
		TranscriptRaw:       transcript,
		TranscriptClean:     clean,
		Sentiment:           label,
		SentimentConfidence: confidence,
		QualityScore:        score,
		ReviewThreshold:     threshold,
		NeedsReview:         decision.NeedsReview,
		ReviewFlags:         decision.FlagString(),
	}
	if decision.NeedsReview {
		msgs := p.generator.Generate(callID, name, score, label)
		rec.SupervisorSummary = msgs.Supervisor.String()
		rec.CustomerMessage = msgs.Customer
	}
	return rec
}

// Messages regenerates the structured outreach for a flagged record.
// ok is false when the record was not flagged.
func (p *Pipeline) Messages(rec types.CallRecord) (actionable.Messages, bool) {
	if !rec.NeedsReview {
		return actionable.Messages{}, false
	}
	return p.generator.Generate(rec.CallID, rec.CustomerName, rec.QualityScore, rec.Sentiment), true
}

// Explain exposes the score contributions for a transcript.
func (p *Pipeline) Explain(transcript string) (types.Sentiment, float64, scoring.Breakdown) {
	clean := textnorm.Normalize(transcript)
	label, confidence := p.classifier.Classify(clean)
	return label, confidence, p.scorer.Explain(clean, label)
}
