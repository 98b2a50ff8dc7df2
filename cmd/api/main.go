package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"call-quality-go/internal/app"
	"call-quality-go/internal/config"
	"call-quality-go/internal/httpapi"
	"call-quality-go/internal/logger"
	"call-quality-go/internal/types"
	"call-quality-go/internal/watch"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New("call-quality-api")
	if err := run(log); err != nil {
		log.WithError(err).Fatal("service stopped")
	}
}

func run(log *logger.Logger) error {
	log.Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("close failed")
		}
	}()

	if cfg.InboxDir != "" {
		w := watch.New(cfg.InboxDir, func(ctx context.Context, req types.CallRequest) {
			a.Processor.Process(ctx, req)
		}, watch.WithLogger(log))
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		n, err := w.Backfill(ctx)
		if err != nil {
			log.WithError(err).Warn("inbox backfill failed")
		}
		log.WithField("files", n).Info("inbox backfilled")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.New(a.Processor, a.Metrics, log).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server terminated: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}
