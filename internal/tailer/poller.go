package tailer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LineHandler consumes one newly appended log line.
type LineHandler func(ctx context.Context, line string)

// Poller drives a Tailer on a fixed interval. It is one of the two
// scheduling disciplines; the Watcher is the event-driven alternative.
// Both funnel into Tailer.Poll, so the choice is a scheduling detail.
type Poller struct {
	tailer   *Tailer
	handler  LineHandler
	interval time.Duration
	logger   *logrus.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewPoller(t *Tailer, handler LineHandler, interval time.Duration, logger *logrus.Logger) *Poller {
	return &Poller{
		tailer:   t,
		handler:  handler,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the background polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("log poller is already running")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.wg.Add(1)
	go p.pollLoop()

	p.logger.WithFields(logrus.Fields{
		"dir":      p.tailer.logDir,
		"interval": p.interval,
	}).Info("Log poller started")

	return nil
}

// Stop gracefully stops the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.running = false
	p.logger.Info("Log poller stopped")
}

// IsRunning returns whether the poller is currently active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			pollOnce(p.ctx, p.tailer, p.handler, p.logger)
		}
	}
}

// pollOnce runs one poll and feeds the resulting lines to the handler.
// Errors are logged and swallowed; no poll failure terminates the loop.
func pollOnce(ctx context.Context, t *Tailer, handler LineHandler, logger *logrus.Logger) {
	lines, err := t.Poll()
	if err != nil {
		if errors.Is(err, ErrNoLogFile) {
			logger.Debug("No log file found yet")
		} else {
			logger.WithError(err).Warn("Log poll failed")
		}
		return
	}

	for _, line := range lines {
		handler(ctx, line)
	}
}
