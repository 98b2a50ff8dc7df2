// Package notify delivers the outreach generated for flagged calls.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"call-quality-go/internal/actionable"
	"call-quality-go/internal/types"
)

// Alert is the envelope published for one flagged call: the supervisor
// alert and the customer follow-up travel together.
type Alert struct {
	CallID          string                     `json:"call_id"`
	CustomerName    string                     `json:"customer_name"`
	Timestamp       time.Time                  `json:"timestamp"`
	QualityScore    float64                    `json:"quality_score"`
	Sentiment       types.Sentiment            `json:"sentiment"`
	ReviewFlags     string                     `json:"review_flags"`
	Supervisor      actionable.SupervisorAlert `json:"supervisor"`
	SupervisorText  string                     `json:"supervisor_summary"`
	CustomerMessage string                     `json:"customer_message"`
}

func NewAlert(rec types.CallRecord, msgs actionable.Messages) Alert {
	return Alert{
		CallID:          rec.CallID,
		CustomerName:    rec.CustomerName,
		Timestamp:       rec.Timestamp,
		QualityScore:    rec.QualityScore,
		Sentiment:       rec.Sentiment,
		ReviewFlags:     rec.ReviewFlags,
		Supervisor:      msgs.Supervisor,
		SupervisorText:  rec.SupervisorSummary,
		CustomerMessage: rec.CustomerMessage,
	}
}

func (a Alert) Encode() ([]byte, error) {
	return json.Marshal(a)
}

type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close() error
}

// Noop drops alerts; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Alert) error { return nil }
func (Noop) Close() error                         { return nil }

// Capture keeps published alerts in memory. A non-nil Err fails every publish.
type Capture struct {
	mu     sync.Mutex
	alerts []Alert
	Err    error
}

func (c *Capture) Publish(_ context.Context, a Alert) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	c.alerts = append(c.alerts, a)
	c.mu.Unlock()
	return nil
}

func (c *Capture) Alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Alert(nil), c.alerts...)
}

func (c *Capture) Close() error { return nil }
