package aggregator

import (
	"fmt"
	"math"
	"sort"

	"call-quality-go/internal/policy"
	"call-quality-go/internal/types"
)

// NeutralBaseline is the reference the average score delta is reported against.
const NeutralBaseline = 50.0

// MessagesPerFlaggedCall: one supervisor alert plus one customer message.
const MessagesPerFlaggedCall = 2

type Bucket struct {
	Label   string `json:"label"`
	Low     int    `json:"low"`
	High    int    `json:"high"`
	Total   int    `json:"total"`
	Flagged int    `json:"flagged"`
}

// Dashboard is the executive view over the call history.
type Dashboard struct {
	TotalCalls      int                     `json:"total_calls"`
	FlaggedCalls    int                     `json:"flagged_calls"`
	FlaggedPct      float64                 `json:"flagged_pct"`
	AvgScore        float64                 `json:"avg_score"`
	AvgScoreDelta   float64                 `json:"avg_score_delta"`
	Notifications   int                     `json:"notifications"`
	SentimentCounts map[types.Sentiment]int `json:"sentiment_counts"`
	FlagCounts      map[string]int          `json:"flag_counts"`
	ScoreHistogram  []Bucket                `json:"score_histogram"`
	FlaggedByScore  []types.CallRecord      `json:"flagged_by_score"`
	RecentFirst     []types.CallRecord      `json:"recent_first"`
}

func Summarize(records []types.CallRecord) Dashboard {
	d := Dashboard{
		SentimentCounts: map[types.Sentiment]int{types.Positive: 0, types.Neutral: 0, types.Negative: 0},
		FlagCounts:      map[string]int{string(types.FlagLowScore): 0, string(types.FlagNegSentiment): 0},
		ScoreHistogram:  newHistogram(),
		FlaggedByScore:  []types.CallRecord{},
		RecentFirst:     []types.CallRecord{},
	}
	if len(records) == 0 {
		return d
	}

	total := 0.0
	for _, r := range records {
		d.TotalCalls++
		total += r.QualityScore
		d.SentimentCounts[r.Sentiment]++

		b := &d.ScoreHistogram[bucketIndex(r.QualityScore)]
		b.Total++
		if r.NeedsReview {
			d.FlaggedCalls++
			b.Flagged++
			d.FlaggedByScore = append(d.FlaggedByScore, r)
		}
		for _, f := range policy.ParseFlags(r.ReviewFlags) {
			d.FlagCounts[string(f)]++
		}
	}

	d.FlaggedPct = round1(float64(d.FlaggedCalls) / float64(d.TotalCalls) * 100)
	d.AvgScore = round1(total / float64(d.TotalCalls))
	d.AvgScoreDelta = round1(d.AvgScore - NeutralBaseline)
	d.Notifications = d.FlaggedCalls * MessagesPerFlaggedCall

	sort.SliceStable(d.FlaggedByScore, func(i, j int) bool {
		return d.FlaggedByScore[i].QualityScore < d.FlaggedByScore[j].QualityScore
	})

	d.RecentFirst = append(d.RecentFirst, records...)
	sort.SliceStable(d.RecentFirst, func(i, j int) bool {
		return d.RecentFirst[i].Timestamp.After(d.RecentFirst[j].Timestamp)
	})
	return d
}

// newHistogram returns ten-point bands; the last band includes 100.
func newHistogram() []Bucket {
	out := make([]Bucket, 10)
	for i := range out {
		low, high := i*10, i*10+10
		out[i] = Bucket{Label: fmt.Sprintf("%d-%d", low, high), Low: low, High: high}
	}
	return out
}

func bucketIndex(score float64) int {
	i := int(math.Floor(score / 10))
	if i < 0 {
		return 0
	}
	if i > 9 {
		return 9
	}
	return i
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
