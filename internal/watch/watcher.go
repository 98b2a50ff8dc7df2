// Package watch feeds transcript files dropped into an inbox directory to
// the processor.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"call-quality-go/internal/logger"
	"call-quality-go/internal/types"
)

// Handler receives one request per transcript file.
type Handler func(ctx context.Context, req types.CallRequest)

// Watcher monitors a directory for new .txt transcripts. Each file is
// handled once; its base name without extension becomes the call id.
type Watcher struct {
	dir    string
	handle Handler
	settle time.Duration
	log    *logger.Logger

	mu      sync.Mutex
	seen    map[string]bool
	pending map[string]*time.Timer
}

type Option func(*Watcher)

// WithSettle sets how long a file must stay quiet before it is read.
func WithSettle(d time.Duration) Option { return func(w *Watcher) { w.settle = d } }

func WithLogger(l *logger.Logger) Option { return func(w *Watcher) { w.log = l } }

func New(dir string, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		handle:  handle,
		settle:  250 * time.Millisecond,
		log:     logger.Discard(),
		seen:    make(map[string]bool),
		pending: make(map[string]*time.Timer),
	}
	for _, o := range opts {
		o(w)
	}
	w.log = &logger.Logger{Entry: w.log.Component("watch").WithField("dir", dir)}
	return w
}

// Start begins watching in the background until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if w.dir == "" {
		w.log.Info("watcher disabled")
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go func() {
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				w.stopPending()
				return
			case evt, ok := <-fw.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && isTranscript(evt.Name) {
					w.schedule(ctx, evt.Name)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.WithError(err).Warn("watcher error")
			}
		}
	}()
	w.log.Info("watching inbox")
	return nil
}

// Backfill handles transcripts already present in the directory.
func (w *Watcher) Backfill(ctx context.Context) (int, error) {
	if w.dir == "" {
		return 0, nil
	}
	entries, err := filepath.Glob(filepath.Join(w.dir, "*"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if isTranscript(e) && w.handleFile(ctx, e) {
			n++
		}
	}
	return n, nil
}

// schedule debounces events for path so partially written files are not read.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.handleFile(ctx, path)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

func (w *Watcher) handleFile(ctx context.Context, path string) bool {
	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return false
	}
	w.seen[path] = true
	w.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.WithError(err).WithField("file", path).Warn("read transcript")
		return false
	}
	id := CallID(path)
	w.log.ForCall(id).WithField("file", filepath.Base(path)).Info("transcript picked up")
	w.handle(ctx, types.CallRequest{Transcript: string(data), CallID: id})
	return true
}

// CallID derives the call id from a transcript file name.
func CallID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isTranscript(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".txt")
}
