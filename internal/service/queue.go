package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"jtdxmon/internal/metrics"
	"jtdxmon/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Notifier delivers one formatted message batch to the remote endpoint.
// A nil return means the endpoint accepted the message; any error is a
// failed delivery and the batch will be retried on the next flush cycle.
type Notifier interface {
	Send(ctx context.Context, content string) error
}

// NotificationQueue collects pending callsigns, deduplicates them within
// one flush window, and delivers them as a single numbered batch on a
// fixed cadence. Failed batches are re-queued in full; there is no retry
// cap and no backoff growth, an unreachable endpoint simply retries at
// the configured interval.
type NotificationQueue struct {
	name     string
	notifier Notifier
	interval time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	fifo    []string
}

func NewNotificationQueue(name string, notifier Notifier, interval time.Duration, logger *logrus.Logger) *NotificationQueue {
	return &NotificationQueue{
		name:     name,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

// Add marks a callsign pending. A callsign already pending is dropped;
// the dedup window lasts until the next flush drains the queue. Add
// reports whether the callsign was actually enqueued.
func (q *NotificationQueue) Add(callsign string) bool {
	if callsign == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.pending[callsign]; exists {
		return false
	}
	q.pending[callsign] = struct{}{}
	q.fifo = append(q.fifo, callsign)
	return true
}

// Pending returns the number of callsigns awaiting delivery.
func (q *NotificationQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo)
}

// Flush drains everything pending and attempts one delivery.
//
// The dedup set is cleared when the batch is drained, not on confirmed
// delivery: a callsign added while a failing send is in flight stays
// distinct from the re-queued copy from that send and shows up again in
// the next batch. On failure the whole drained batch is re-queued; send
// is all-or-nothing, partial delivery is not representable.
func (q *NotificationQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	batch := q.fifo
	q.fifo = nil
	q.pending = make(map[string]struct{})
	q.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "queue.flush",
		attribute.Int("batch.size", len(batch)),
	)
	defer span.End()

	start := time.Now()
	err := q.notifier.Send(ctx, q.formatBatch(batch))
	metrics.RecordTimer("notify_send_duration", time.Since(start))

	if err != nil {
		tracing.RecordError(ctx, err)
		metrics.IncrementCounter("notify_send_failures_total", "Total failed notification deliveries")
		q.logger.WithError(err).WithField("batch", len(batch)).Warn("Failed to deliver notification batch, re-queueing")

		requeued := 0
		for _, callsign := range batch {
			if q.Add(callsign) {
				requeued++
			}
		}
		metrics.AddToCounter("notify_requeued_total", float64(requeued), "Total callsigns re-queued after failed delivery")
		return
	}

	tracing.SetSpanStatus(ctx, codes.Ok, "")
	metrics.IncrementCounter("notify_sends_total", "Total successful notification deliveries")
	metrics.AddToCounter("notify_callsigns_delivered_total", float64(len(batch)), "Total callsigns delivered")
	q.logger.WithField("batch", len(batch)).Info("Delivered notification batch")
}

// Run flushes the queue on its fixed interval until the context is
// cancelled. Adding never triggers an immediate flush; the final
// shutdown drain is an explicit Flush call by the owner.
func (q *NotificationQueue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.logger.WithField("interval", q.interval).Info("Notification queue started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Notification queue stopping")
			return
		case <-ticker.C:
			q.Flush(ctx)
		}
	}
}

// formatBatch renders one delivery message: a header naming the monitor
// and the batch size, then a numbered list of callsigns in enqueue order.
func (q *NotificationQueue) formatBatch(batch []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s decode report [%d calls]", q.name, len(batch))
	for i, callsign := range batch {
		fmt.Fprintf(&b, "\n%d. %s", i+1, callsign)
	}
	return b.String()
}
