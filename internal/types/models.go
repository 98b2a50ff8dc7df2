package types

import "time"

// Sentiment is the closed label set produced by the classifier.
type Sentiment string

const (
	Positive Sentiment = "POSITIVE"
	Neutral  Sentiment = "NEUTRAL"
	Negative Sentiment = "NEGATIVE"
)

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Neutral, Negative:
		return true
	}
	return false
}

// ReviewFlag is a reason code explaining why a call was flagged.
type ReviewFlag string

const (
	FlagLowScore     ReviewFlag = "LOW_SCORE"
	FlagNegSentiment ReviewFlag = "NEG_SENTIMENT"
)

// FlagsOK is the review_flags value when no flag fired.
const FlagsOK = "OK"

// CallRequest is the input contract of one pipeline invocation.
// A nil ReviewThreshold means "use the profile default".
type CallRequest struct {
	Transcript      string   `json:"transcript"`
	CallID          string   `json:"call_id"`
	CustomerName    string   `json:"customer_name,omitempty"`
	ReviewThreshold *float64 `json:"review_threshold,omitempty"`
	AudioURL        string   `json:"audio_url,omitempty"`
}

// CallRecord is the analysis of one call. It is built once by the pipeline
// and never modified afterwards.
type CallRecord struct {
	Timestamp           time.Time `json:"timestamp"`
	CallID              string    `json:"call_id"`
	CustomerName        string    `json:"customer_name"`
	TranscriptRaw       string    `json:"transcript_raw"`
	TranscriptClean     string    `json:"transcript_clean"`
	Sentiment           Sentiment `json:"sentiment"`
	SentimentConfidence float64   `json:"sentiment_confidence"`
	QualityScore        float64   `json:"quality_score"`
	ReviewThreshold     float64   `json:"review_threshold"`
	NeedsReview         bool      `json:"needs_review"`
	ReviewFlags         string    `json:"review_flags"`
	SupervisorSummary   string    `json:"supervisor_summary"`
	CustomerMessage     string    `json:"customer_message"`
}
