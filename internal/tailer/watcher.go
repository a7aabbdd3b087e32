package tailer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher drives a Tailer from filesystem change notifications on the
// log directory instead of a fixed-interval ticker. Every relevant event
// funnels into the same Tailer.Poll discovery/truncation/read logic the
// Poller uses.
type Watcher struct {
	tailer  *Tailer
	handler LineHandler
	logger  *logrus.Logger

	fsw     *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewWatcher(t *Tailer, handler LineHandler, logger *logrus.Logger) *Watcher {
	return &Watcher{
		tailer:  t,
		handler: handler,
		logger:  logger,
	}
}

// Start registers the log directory with fsnotify and begins the event
// loop. The initial poll adopts whatever log file already exists so that
// pre-existing content is skipped, mirroring the Poller's first cycle.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("log watcher is already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	if err := fsw.Add(w.tailer.logDir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch log directory: %w", err)
	}

	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	pollOnce(w.ctx, w.tailer, w.handler, w.logger)

	w.wg.Add(1)
	go w.watchLoop()

	w.logger.WithField("dir", w.tailer.logDir).Info("Log watcher started")
	return nil
}

// Stop gracefully stops the event loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.cancel()
	if err := w.fsw.Close(); err != nil {
		w.logger.WithError(err).Warn("Failed to close filesystem watcher")
	}
	w.wg.Wait()
	w.running = false
	w.logger.Info("Log watcher stopped")
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pollOnce(w.ctx, w.tailer, w.handler, w.logger)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Filesystem watcher error")
		}
	}
}

// relevant filters events down to writes and creations of files that
// follow the log naming scheme. Rotation shows up as a Create of the new
// file; appends as Writes to the active one.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, w.tailer.suffix)
}
