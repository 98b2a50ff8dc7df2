// Package processor is the service layer around the scoring pipeline. It
// owns identity defaults, history recording, outreach delivery and metrics;
// the pipeline itself never sees any of them.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"call-quality-go/internal/aggregator"
	"call-quality-go/internal/dataset"
	"call-quality-go/internal/history"
	"call-quality-go/internal/logger"
	"call-quality-go/internal/metrics"
	"call-quality-go/internal/notify"
	"call-quality-go/internal/pipeline"
	"call-quality-go/internal/types"
)

var ErrNoTranscriber = errors.New("audio_url given but no transcription service configured")

type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Result is the record plus what happened to it after scoring.
type Result struct {
	Record    types.CallRecord `json:"record"`
	Persisted bool             `json:"persisted"`
	Notified  bool             `json:"notified"`
	Warnings  []string         `json:"warnings,omitempty"`
	// Error is set when the call could not be assessed at all.
	Error     string           `json:"error,omitempty"`
}

type Deps struct {
	Pipeline    *pipeline.Pipeline
	Recorder    *history.Recorder
	Publisher   notify.Publisher
	Transcriber Transcriber
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	Concurrency int
	NewCallID   func() string
}

type Processor struct {
	pipe        *pipeline.Pipeline
	recorder    *history.Recorder
	publisher   notify.Publisher
	transcriber Transcriber
	metrics     *metrics.Metrics
	log         *logger.Logger
	concurrency int
	newCallID   func() string
}

func New(d Deps) *Processor {
	p := &Processor{
		pipe:        d.Pipeline,
		recorder:    d.Recorder,
		publisher:   d.Publisher,
		transcriber: d.Transcriber,
		metrics:     d.Metrics,
		log:         d.Logger,
		concurrency: d.Concurrency,
		newCallID:   d.NewCallID,
	}
	if p.publisher == nil {
		p.publisher = notify.Noop{}
	}
	if p.metrics == nil {
		p.metrics = metrics.New("call_quality")
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	p.log = p.log.Component("processor")
	if p.concurrency <= 0 {
		p.concurrency = 4
	}
	if p.newCallID == nil {
		p.newCallID = NewCallID
	}
	return p
}

// NewCallID returns "CALL-" plus eight hex characters of a random uuid.
func NewCallID() string {
	return "CALL-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Process scores one transcript and records it. It never fails: history
// and delivery problems are reported on the Result.
func (p *Processor) Process(ctx context.Context, req types.CallRequest) Result {
	start := time.Now()
	req = p.withIdentity(req)
	rec := p.pipe.Process(req)
	return p.finish(ctx, rec, start)
}

// ProcessAudio transcribes req.AudioURL when no transcript was supplied,
// then processes the call. Transcription is the only failure path.
func (p *Processor) ProcessAudio(ctx context.Context, req types.CallRequest) (Result, error) {
	req, err := p.transcribe(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return p.Process(ctx, req), nil
}

func needsTranscript(req types.CallRequest) bool {
	return strings.TrimSpace(req.Transcript) == "" && strings.TrimSpace(req.AudioURL) != ""
}

func (p *Processor) transcribe(ctx context.Context, req types.CallRequest) (types.CallRequest, error) {
	if !needsTranscript(req) {
		return req, nil
	}
	if p.transcriber == nil || !p.transcriber.Enabled() {
		return req, ErrNoTranscriber
	}
	log := p.log.WithField("audio_url", req.AudioURL)
	start := time.Now()
	text, err := p.transcriber.Transcribe(ctx, req.AudioURL)
	if err != nil {
		p.metrics.TranscribeErrors.Inc()
		log.WithError(err).Warn("transcription failed")
		return req, fmt.Errorf("transcribe %s: %w", req.AudioURL, err)
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("transcript obtained")
	req.Transcript = text
	return req, nil
}

// ProcessBatch scores requests concurrently and records them in input
// order, so history order matches the batch. Items that only carry an
// audio_url are transcribed first; an item whose transcript cannot be
// obtained comes back with Error set and is neither recorded nor published.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []types.CallRequest) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	start := time.Now()
	records := make([]types.CallRecord, len(reqs))
	failures := make([]error, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range reqs {
		req := p.withIdentity(reqs[i])
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			req, err := p.transcribe(gCtx, req)
			if err != nil {
				failures[i] = err
				records[i] = types.CallRecord{CallID: req.CallID, CustomerName: req.CustomerName}
				return nil
			}
			records[i] = p.pipe.Process(req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch scoring: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch scoring: %w", err)
	}

	results := make([]Result, len(records))
	failed := 0
	for i, rec := range records {
		if failures[i] != nil {
			failed++
			results[i] = Result{Record: rec, Error: failures[i].Error()}
			continue
		}
		results[i] = p.finish(ctx, rec, start)
	}
	p.log.WithField("calls", len(results)).
		WithField("failed", failed).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("batch processed")
	return results, nil
}

func (p *Processor) withIdentity(req types.CallRequest) types.CallRequest {
	req.CallID = strings.TrimSpace(req.CallID)
	if req.CallID == "" {
		req.CallID = p.newCallID()
	}
	return req
}

func (p *Processor) finish(ctx context.Context, rec types.CallRecord, start time.Time) Result {
	res := Result{Record: rec}
	log := p.log.ForCall(rec.CallID)

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, rec); err != nil {
			p.metrics.HistoryFailures.Inc()
			res.Warnings = append(res.Warnings, "history append failed: "+err.Error())
		} else {
			res.Persisted = true
		}
	} else {
		res.Warnings = append(res.Warnings, "no history store configured")
	}

	if msgs, flagged := p.pipe.Messages(rec); flagged {
		if err := p.publisher.Publish(ctx, notify.NewAlert(rec, msgs)); err != nil {
			p.metrics.Notifications.WithLabelValues("failed").Inc()
			log.WithError(err).Warn("outreach publish failed")
			res.Warnings = append(res.Warnings, "outreach publish failed: "+err.Error())
		} else {
			p.metrics.Notifications.WithLabelValues("sent").Inc()
			res.Notified = true
		}
	}

	p.metrics.ObserveCall(rec, time.Since(start))
	log.WithField("score", rec.QualityScore).
		WithField("sentiment", rec.Sentiment).
		WithField("flags", rec.ReviewFlags).
		Info("call processed")
	return res
}

// History returns every recorded call in append order.
func (p *Processor) History(ctx context.Context) ([]types.CallRecord, error) {
	if p.recorder == nil {
		return nil, nil
	}
	return p.recorder.List(ctx)
}

func (p *Processor) Dashboard(ctx context.Context) (aggregator.Dashboard, error) {
	records, err := p.History(ctx)
	if err != nil {
		return aggregator.Dashboard{}, err
	}
	return aggregator.Summarize(records), nil
}

// Export writes the history workbook to w.
func (p *Processor) Export(ctx context.Context, w io.Writer) error {
	records, err := p.History(ctx)
	if err != nil {
		return err
	}
	return dataset.Export(w, records)
}

// ImportWorkbook loads transcripts from an XLSX file and processes them as a batch.
func (p *Processor) ImportWorkbook(ctx context.Context, path string) ([]Result, error) {
	reqs, err := dataset.LoadTranscripts(path)
	if err != nil {
		return nil, err
	}
	p.log.WithField("path", path).WithField("rows", len(reqs)).Info("workbook loaded")
	return p.ProcessBatch(ctx, reqs)
}

// Pipeline exposes the underlying scoring pipeline.
func (p *Processor) Pipeline() *pipeline.Pipeline { return p.pipe }
