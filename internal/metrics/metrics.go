package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"call-quality-go/internal/types"
)

// Metrics groups the Prometheus instruments of the service. Each instance
// owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	CallsProcessed   *prometheus.CounterVec
	QualityScore     prometheus.Histogram
	ProcessDuration  prometheus.Histogram
	HistoryFailures  prometheus.Counter
	Notifications    *prometheus.CounterVec
	TranscribeErrors prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CallsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_processed_total",
			Help:      "Calls assessed, by sentiment and review outcome.",
		}, []string{"sentiment", "needs_review"}),
		QualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Distribution of call quality scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		ProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time spent assessing and recording one call.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		HistoryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_append_failures_total",
			Help:      "History appends abandoned after retries.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outreach publications by result.",
		}, []string{"result"}),
		TranscribeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Audio requests that could not be transcribed.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		m.CallsProcessed, m.QualityScore, m.ProcessDuration, m.HistoryFailures,
		m.Notifications, m.TranscribeErrors, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCall(rec types.CallRecord, d time.Duration) {
	m.CallsProcessed.WithLabelValues(string(rec.Sentiment), strconv.FormatBool(rec.NeedsReview)).Inc()
	m.QualityScore.Observe(rec.QualityScore)
	m.ProcessDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
