package service

import (
	"context"

	"jtdxmon/internal/decoder"
	"jtdxmon/internal/filter"
	"jtdxmon/internal/metrics"
	"jtdxmon/internal/models"

	"github.com/sirupsen/logrus"
)

// ContactStore persists reported contacts. The history store implements
// it; a nil store disables recording.
type ContactStore interface {
	SaveContact(ctx context.Context, record *models.ContactRecord) error
}

// Monitor is the line-processing pipeline: decode a raw log line,
// extract the contact event, filter it against the ignore list, and
// enqueue the caller for notification. It is injected as the line
// handler into whichever tail scheduler is configured.
type Monitor struct {
	filter *filter.CallsignFilter
	queue  *NotificationQueue
	store  ContactStore
	logger *logrus.Logger
}

func NewMonitor(f *filter.CallsignFilter, queue *NotificationQueue, store ContactStore, logger *logrus.Logger) *Monitor {
	return &Monitor{
		filter: f,
		queue:  queue,
		store:  store,
		logger: logger,
	}
}

// HandleLine processes one raw log line end to end. It never fails:
// lines that do not parse are log noise, and a storage error is logged
// without stopping the pipeline.
func (m *Monitor) HandleLine(ctx context.Context, line string) {
	metrics.IncrementCounter("tail_lines_total", "Total lines read from the log")

	record, ok := decoder.Decode(line)
	if !ok {
		return
	}
	metrics.IncrementCounter("decode_records_total", "Total decode records parsed")

	event := decoder.Extract(record.Message)
	if event.IsZero() {
		return
	}

	reportCaller := m.filter.ShouldReport(event.Caller)
	reportCalled := m.filter.ShouldReport(event.Called)
	if !reportCaller && !reportCalled {
		metrics.IncrementCounter("contacts_ignored_total", "Total contact events suppressed by the ignore list")
		return
	}

	m.logContact(record, event)
	metrics.IncrementCounter("contacts_total", "Total reportable contact events")

	// Only the transmitting station is queued, and only when it passes
	// the ignore list itself.
	if reportCaller {
		if m.queue.Add(event.Caller) {
			metrics.IncrementCounter("queue_added_total", "Total callsigns enqueued for notification")
		} else {
			metrics.IncrementCounter("queue_deduped_total", "Total callsigns dropped as already pending")
		}
	}

	if m.store != nil {
		contact := &models.ContactRecord{
			Timestamp:       record.Timestamp,
			Caller:          event.Caller,
			Called:          event.Called,
			SNR:             record.SNR,
			FrequencyOffset: record.FrequencyOffset,
			Message:         record.Message,
		}
		if err := m.store.SaveContact(ctx, contact); err != nil {
			m.logger.WithError(err).Warn("Failed to record contact history")
		}
	}
}

func (m *Monitor) logContact(record *models.DecodeRecord, event models.ContactEvent) {
	entry := m.logger.WithFields(logrus.Fields{
		"time": record.Timestamp.Format("15:04:05"),
		"snr":  record.SNR,
		"freq": record.FrequencyOffset,
	})

	if event.Directed() {
		entry.WithFields(logrus.Fields{
			"caller": event.Caller,
			"called": event.Called,
		}).Info("Directed call")
	} else {
		entry.WithField("caller", event.Caller).Info("CQ call")
	}
}
