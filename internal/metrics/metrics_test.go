package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, float64(0), r.CounterValue("tail_lines_total"))

	r.IncrementCounter("tail_lines_total", "Total lines read from the log")
	r.IncrementCounter("tail_lines_total", "Total lines read from the log")
	r.AddToCounter("tail_lines_total", 3, "Total lines read from the log")

	assert.Equal(t, float64(5), r.CounterValue("tail_lines_total"))
}

func TestRegistry_ConcurrentCounters(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.IncrementCounter("concurrent_total", "")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(1000), r.CounterValue("concurrent_total"))
}

func TestRegistry_Timers(t *testing.T) {
	r := NewRegistry()

	r.RecordTimer("notify_send_duration", 10*time.Millisecond)
	r.RecordTimer("notify_send_duration", 30*time.Millisecond)
	r.RecordTimer("notify_send_duration", 20*time.Millisecond)

	all := r.GetAllMetrics()
	timers, ok := all["timers"].(map[string]*TimerMetric)
	require.True(t, ok)

	timer := timers["notify_send_duration"]
	require.NotNil(t, timer)
	assert.Equal(t, int64(3), timer.Count)
	assert.Equal(t, float64(10), timer.Min)
	assert.Equal(t, float64(30), timer.Max)
	assert.Equal(t, float64(60), timer.Sum)
	assert.Equal(t, float64(20), timer.Average)
}

func TestRegistry_Gauges(t *testing.T) {
	r := NewRegistry()

	r.SetGauge("queue_pending", 4, "Callsigns awaiting delivery")
	r.SetGauge("queue_pending", 2, "Callsigns awaiting delivery")

	all := r.GetAllMetrics()
	gauges, ok := all["gauges"].(map[string]*Metric)
	require.True(t, ok)
	require.NotNil(t, gauges["queue_pending"])
	assert.Equal(t, float64(2), gauges["queue_pending"].Value)
	assert.Equal(t, Gauge, gauges["queue_pending"].Type)
}

func TestRegistry_GetAllMetrics(t *testing.T) {
	r := NewRegistry()
	r.IncrementCounter("decode_records_total", "Total decode records parsed")

	all := r.GetAllMetrics()
	assert.Contains(t, all, "counters")
	assert.Contains(t, all, "timers")
	assert.Contains(t, all, "gauges")
	assert.Contains(t, all, "uptime_ms")
	assert.Contains(t, all, "timestamp")

	counters, ok := all["counters"].(map[string]*Metric)
	require.True(t, ok)
	assert.Equal(t, float64(1), counters["decode_records_total"].Value)
	assert.Equal(t, Counter, counters["decode_records_total"].Type)
}

func TestGlobalRegistry(t *testing.T) {
	before := GetRegistry().CounterValue("global_test_total")
	IncrementCounter("global_test_total", "")
	assert.Equal(t, before+1, GetRegistry().CounterValue("global_test_total"))
}
