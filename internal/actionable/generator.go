package actionable

import (
	"fmt"
	"strings"

	"call-quality-go/internal/types"
)

type Severity string

const (
	SeverityCritical     Severity = "CRITICAL"
	SeverityHighPriority Severity = "HIGH_PRIORITY"
)

type Action string

const (
	ActionImmediateEscalation Action = "IMMEDIATE_ESCALATION"
	ActionAgentRetraining     Action = "AGENT_RETRAINING"
)

const (
	IssueAngryCustomer = "angry customer"
	IssueVeryLow       = "very low quality"
	IssueGeneric       = "Low quality indicators"
)

// Config holds the score bands and outreach constants used by the templates.
type Config struct {
	CriticalBelow       float64 `yaml:"critical_below"`
	VeryLowBelow        float64 `yaml:"very_low_below"`
	EscalateBelow       float64 `yaml:"escalate_below"`
	CallbackSLAHours    int     `yaml:"callback_sla_hours"`
	DefaultCustomerName string  `yaml:"default_customer_name"`
}

func DefaultConfig() Config {
	return Config{
		CriticalBelow:       40,
		VeryLowBelow:        50,
		EscalateBelow:       30,
		CallbackSLAHours:    2,
		DefaultCustomerName: "Customer",
	}
}

// SupervisorAlert is the structured form of the supervisor summary.
type SupervisorAlert struct {
	CallID   string   `json:"call_id"`
	Severity Severity `json:"severity"`
	Score    float64  `json:"score"`
	Issues   []string `json:"issues"`
	Action   Action   `json:"action"`
}

// String renders the multi-line summary stored on the call record.
func (a SupervisorAlert) String() string {
	issues := IssueGeneric
	if len(a.Issues) > 0 {
		issues = strings.Join(a.Issues, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SUPERVISOR ALERT: %s\n", a.CallID)
	fmt.Fprintf(&b, "Severity: %s\n", a.Severity)
	fmt.Fprintf(&b, "Score: %.1f/100\n", a.Score)
	fmt.Fprintf(&b, "Issues: %s\n", issues)
	fmt.Fprintf(&b, "Action: %s\n", a.Action)
	b.WriteString("Review transcript immediately")
	return b.String()
}

// Messages is the outreach pair generated for a flagged call.
type Messages struct {
	Supervisor SupervisorAlert `json:"supervisor"`
	Customer   string          `json:"customer"`
}

type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	if cfg.DefaultCustomerName == "" {
		cfg.DefaultCustomerName = DefaultConfig().DefaultCustomerName
	}
	return &Generator{cfg: cfg}
}

// Generate builds both messages. Callers invoke it only for flagged calls.
func (g *Generator) Generate(callID, customerName string, score float64, label types.Sentiment) Messages {
	return Messages{
		Supervisor: g.Supervisor(callID, score, label),
		Customer:   g.CustomerMessage(customerName, label),
	}
}

func (g *Generator) Supervisor(callID string, score float64, label types.Sentiment) SupervisorAlert {
	a := SupervisorAlert{
		CallID:   callID,
		Severity: SeverityHighPriority,
		Score:    score,
		Action:   ActionAgentRetraining,
	}
	if score < g.cfg.CriticalBelow {
		a.Severity = SeverityCritical
	}
	if label == types.Negative {
		a.Issues = append(a.Issues, IssueAngryCustomer)
	}
	if score < g.cfg.VeryLowBelow {
		a.Issues = append(a.Issues, IssueVeryLow)
	}
	if score < g.cfg.EscalateBelow {
		a.Action = ActionImmediateEscalation
	}
	return a
}

// CustomerMessage picks the template for label. The default arm covers
// labels outside the closed set.
func (g *Generator) CustomerMessage(customerName string, label types.Sentiment) string {
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = g.cfg.DefaultCustomerName
	}
	switch label {
	case types.Negative:
		return fmt.Sprintf("Dear %s, we're truly sorry for your experience with your order. A manager will contact you within %s to resolve this.",
			name, hours(g.cfg.CallbackSLAHours))
	case types.Neutral:
		return fmt.Sprintf("Thank you %s for your call. We've recorded your feedback and will follow up if needed.", name)
	case types.Positive:
		return fmt.Sprintf("Thank you %s for your kind words! We're glad we could help.", name)
	default:
		return fmt.Sprintf("Thank you %s for calling.", name)
	}
}

func hours(n int) string {
	if n == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", n)
}
