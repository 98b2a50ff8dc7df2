package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-quality-go/internal/logger"
	"call-quality-go/internal/types"
)

// Recorder is the single writer in front of a Store. Appends are serialized
// and transient failures are retried until maxElapsed.
type Recorder struct {
	mu         sync.Mutex
	store      Store
	maxElapsed time.Duration
	log        *logger.Logger
}

func NewRecorder(store Store, maxElapsed time.Duration, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{store: store, maxElapsed: maxElapsed, log: log.Component("history.recorder")}
}

// Record appends rec. The returned error is for reporting only; the record
// itself is already complete.
func (r *Recorder) Record(ctx context.Context, rec types.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = r.maxElapsed

	attempts := 0
	op := func() error {
		attempts++
		err := r.store.Append(ctx, rec)
		if errors.Is(err, ErrClosed) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.log.ForCall(rec.CallID).WithError(err).WithField("retry_in", wait.String()).Warn("history append failed, retrying")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
	if err != nil {
		r.log.ForCall(rec.CallID).WithError(err).WithField("attempts", attempts).Error("history append abandoned")
		return err
	}
	r.log.ForCall(rec.CallID).Debug("call recorded")
	return nil
}

// List reads the history from the underlying store.
func (r *Recorder) List(ctx context.Context) ([]types.CallRecord, error) {
	return r.store.List(ctx)
}
