// Package app wires the service components from configuration. Both
// binaries build through it so they share one history and one profile.
package app

import (
	"context"
	"errors"
	"fmt"

	"call-quality-go/internal/config"
	"call-quality-go/internal/history"
	"call-quality-go/internal/logger"
	"call-quality-go/internal/metrics"
	"call-quality-go/internal/notify"
	"call-quality-go/internal/pipeline"
	"call-quality-go/internal/processor"
	"call-quality-go/internal/transcription"
)

type App struct {
	Config    config.Config
	Processor *processor.Processor
	Metrics   *metrics.Metrics
	Store     history.Store
	Publisher notify.Publisher
	Log       *logger.Logger
}

// Build opens the history backend and the outreach publisher. An
// unreachable broker degrades to no-op delivery; a broken history does not.
func Build(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}

	store, err := history.Open(ctx, cfg.HistoryBackend, cfg.HistoryDir, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	log.WithField("backend", cfg.HistoryBackend).Info("history store ready")

	var pub notify.Publisher = notify.Noop{}
	if cfg.AMQPURL != "" {
		p, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			log.WithError(err).Warn("amqp unavailable, outreach delivery disabled")
		} else {
			pub = p
		}
	}

	m := metrics.New(cfg.MetricsNamespace)
	tr := transcription.New(cfg.TranscribeURL,
		transcription.WithMock(cfg.MockTranscribe),
		transcription.WithLogger(log),
	)

	proc := processor.New(processor.Deps{
		Pipeline:    pipeline.New(cfg.Profile),
		Recorder:    history.NewRecorder(store, cfg.PersistMaxElapsed, log),
		Publisher:   pub,
		Transcriber: tr,
		Metrics:     m,
		Logger:      log,
		Concurrency: cfg.BatchConcurrency,
	})

	log.WithField("profile", cfg.Profile.Name).
		WithField("review_threshold", cfg.Profile.ReviewThreshold).
		Info("pipeline configured")

	return &App{
		Config:    cfg,
		Processor: proc,
		Metrics:   m,
		Store:     store,
		Publisher: pub,
		Log:       log,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.Store.Close())
}
