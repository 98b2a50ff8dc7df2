package pipeline

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-quality-go/internal/config"
	"call-quality-go/internal/types"
)

func fixedClock(ts ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := ts[i%len(ts)]
		i++
		return t
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return New(config.DefaultProfile(), WithClock(fixedClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))))
}

func assertInvariants(t *testing.T, rec types.CallRecord) {
	t.Helper()
	assert.True(t, rec.Sentiment.Valid())
	assert.GreaterOrEqual(t, rec.QualityScore, 0.0)
	assert.LessOrEqual(t, rec.QualityScore, 100.0)
	assert.Equal(t, rec.QualityScore < rec.ReviewThreshold, rec.NeedsReview)
	assert.Equal(t, rec.Sentiment == types.Negative, strings.Contains(rec.ReviewFlags, string(types.FlagNegSentiment)))
	if rec.NeedsReview {
		assert.NotEmpty(t, rec.SupervisorSummary)
		assert.NotEmpty(t, rec.CustomerMessage)
		assert.NotEqual(t, types.FlagsOK, rec.ReviewFlags)
	} else {
		assert.Empty(t, rec.SupervisorSummary)
		assert.Empty(t, rec.CustomerMessage)
	}
}

func TestDamagedFridgeIsEscalated(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.ProcessCall("Customer: My fridge arrived damaged and is not cooling. This is broken.", "CALL-001", "John Davis", 70)

	assert.Equal(t, "customer: my fridge arrived damaged and is not cooling. this is broken.", rec.TranscriptClean)
	assert.Equal(t, types.Negative, rec.Sentiment)
	assert.InDelta(t, 0.8, rec.SentimentConfidence, 1e-9)
	assert.Equal(t, 6.0, rec.QualityScore)
	assert.True(t, rec.NeedsReview)
	assert.Equal(t, "LOW_SCORE, NEG_SENTIMENT", rec.ReviewFlags)
	assert.Contains(t, rec.SupervisorSummary, "SUPERVISOR ALERT: CALL-001")
	assert.Contains(t, rec.SupervisorSummary, "Severity: CRITICAL")
	assert.Contains(t, rec.SupervisorSummary, "Action: IMMEDIATE_ESCALATION")
	assert.True(t, strings.HasPrefix(rec.CustomerMessage, "Dear John Davis, we're truly sorry"))
	assertInvariants(t, rec)
}

func TestShortPositiveCallTakesLengthPenalty(t *testing.T) {
	p := newTestPipeline(t)
	// 47 characters after normalization, so the short-text term applies.
	rec := p.ProcessCall("Thank you, the service was great and excellent!", "CALL-002", "Ana", 70)

	assert.Equal(t, types.Positive, rec.Sentiment)
	assert.InDelta(t, 0.8, rec.SentimentConfidence, 1e-9)
	assert.Equal(t, 60.0, rec.QualityScore)
	assert.True(t, rec.NeedsReview)
	assert.Equal(t, "LOW_SCORE", rec.ReviewFlags)
	assertInvariants(t, rec)
}

func TestPositiveCallPassesReview(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.ProcessCall("Thank you so much, the technician was on time and the service was great and excellent!", "CALL-003", "Ana", 70)

	assert.Equal(t, types.Positive, rec.Sentiment)
	assert.Equal(t, 75.0, rec.QualityScore)
	assert.False(t, rec.NeedsReview)
	assert.Equal(t, types.FlagsOK, rec.ReviewFlags)
	assert.Empty(t, rec.SupervisorSummary)
	assert.Empty(t, rec.CustomerMessage)
	assertInvariants(t, rec)
}

func TestEmptyTranscript(t *testing.T) {
	p := newTestPipeline(t)

	rec := p.ProcessCall("", "CALL-004", "", 70)
	assert.Equal(t, types.Neutral, rec.Sentiment)
	assert.Equal(t, 0.5, rec.SentimentConfidence)
	assert.Equal(t, 50.0, rec.QualityScore)
	assert.True(t, rec.NeedsReview)
	assert.Equal(t, "LOW_SCORE", rec.ReviewFlags)
	assert.Equal(t, "Customer", rec.CustomerName)
	assert.Contains(t, rec.CustomerMessage, "Thank you Customer for your call.")
	assertInvariants(t, rec)

	rec = p.ProcessCall("   \n  ", "CALL-005", "", 40)
	assert.Equal(t, 50.0, rec.QualityScore)
	assert.False(t, rec.NeedsReview)
	assert.Equal(t, types.FlagsOK, rec.ReviewFlags)
	assertInvariants(t, rec)
}

func TestSameTranscriptDifferentIdentity(t *testing.T) {
	t1 := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)
	p := New(config.DefaultProfile(), WithClock(fixedClock(t1, t2)))

	text := "I want a refund, the blender came broken and the agent was wrong about the warranty."
	a := p.ProcessCall(text, "CALL-A", "Lee", 70)
	b := p.ProcessCall(text, "CALL-B", "Lee", 70)

	assert.Equal(t, a.Sentiment, b.Sentiment)
	assert.Equal(t, a.SentimentConfidence, b.SentimentConfidence)
	assert.Equal(t, a.QualityScore, b.QualityScore)
	assert.Equal(t, a.ReviewFlags, b.ReviewFlags)
	assert.NotEqual(t, a.CallID, b.CallID)
	assert.NotEqual(t, a.Timestamp, b.Timestamp)
	assert.Contains(t, b.SupervisorSummary, "CALL-B")
}

func TestProcessUsesProfileThreshold(t *testing.T) {
	profile := config.DefaultProfile()
	profile.ReviewThreshold = 40
	p := New(profile)

	text := strings.Repeat("calling about my order ", 4)
	rec := p.Process(types.CallRequest{Transcript: text, CallID: "CALL-6"})
	assert.Equal(t, 60.0, rec.QualityScore)
	assert.Equal(t, 40.0, rec.ReviewThreshold)
	assert.False(t, rec.NeedsReview)

	strict := 65.0
	rec = p.Process(types.CallRequest{Transcript: text, CallID: "CALL-7", ReviewThreshold: &strict})
	assert.Equal(t, 65.0, rec.ReviewThreshold)
	assert.True(t, rec.NeedsReview)
	assertInvariants(t, rec)
}

func TestThresholdIsClamped(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.ProcessCall("hello", "CALL-8", "", 250)
	assert.Equal(t, 100.0, rec.ReviewThreshold)
	rec = p.ProcessCall("hello", "CALL-9", "", -5)
	assert.Equal(t, 0.0, rec.ReviewThreshold)
	assert.False(t, rec.NeedsReview)
}

func TestNegativeBelowPermissiveThreshold(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.ProcessCall(strings.Repeat("the customer sounded angry about the delay ", 2), "CALL-10", "", 20)
	assert.Equal(t, types.Negative, rec.Sentiment)
	assert.Equal(t, 30.0, rec.QualityScore)
	assert.False(t, rec.NeedsReview)
	assert.Equal(t, "NEG_SENTIMENT", rec.ReviewFlags)
	assertInvariants(t, rec)
}

func TestMessages(t *testing.T) {
	p := newTestPipeline(t)
	rec := p.ProcessCall("This is broken and I am angry, cancel my order right now please.", "CALL-11", "Kim", 70)
	msgs, ok := p.Messages(rec)
	require.True(t, ok)
	assert.Equal(t, rec.SupervisorSummary, msgs.Supervisor.String())
	assert.Equal(t, rec.CustomerMessage, msgs.Customer)

	clean := p.ProcessCall("", "CALL-12", "", 10)
	_, ok = p.Messages(clean)
	assert.False(t, ok)
}

func TestExplain(t *testing.T) {
	p := newTestPipeline(t)
	label, conf, b := p.Explain("Customer: My fridge arrived damaged and is not cooling. This is broken.")
	assert.Equal(t, types.Negative, label)
	assert.InDelta(t, 0.8, conf, 1e-9)
	assert.Equal(t, []string{"damage", "broken"}, b.ComplaintWords)
	assert.Equal(t, 6.0, b.Score)
}

func TestConcurrentUse(t *testing.T) {
	p := New(config.DefaultProfile())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := p.ProcessCall("my order arrived broken and i want a refund today please", "CALL-X", "", 70)
			assert.Equal(t, 6.0, rec.QualityScore)
		}()
	}
	wg.Wait()
}
