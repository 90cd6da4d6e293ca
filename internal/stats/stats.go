// Package stats collects advisory telemetry about the batching engine:
// enqueue/drop/export counters, queue depth, and span cardinality.
package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/szibis/spans-governor/internal/cardinality"
	"github.com/szibis/spans-governor/internal/logging"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Collector implements the processor's Observer contract and tracks
// span-name cardinality for the spans flowing through the engine.
// All methods are safe for concurrent use and never block.
type Collector struct {
	enqueued     atomic.Uint64
	dropped      atomic.Uint64
	exported     atomic.Uint64
	exportErrors atomic.Uint64
	queueDepth   atomic.Int64

	spansSeen atomic.Uint64

	// spanNames estimates distinct span names; traces estimates distinct
	// trace IDs seen since startup.
	spanNames cardinality.Tracker
	traces    cardinality.Tracker
}

// NewCollector creates a stats collector.
func NewCollector() *Collector {
	return &Collector{
		spanNames: cardinality.NewHLL(),
		traces:    cardinality.NewHLL(),
	}
}

// RecordEnqueued counts records accepted into the queue.
func (c *Collector) RecordEnqueued(count int) {
	c.enqueued.Add(uint64(count))
}

// RecordDropped counts records shed at enqueue time.
func (c *Collector) RecordDropped(count int) {
	c.dropped.Add(uint64(count))
}

// RecordExported counts records handed to the sink in successful exports.
func (c *Collector) RecordExported(count int) {
	c.exported.Add(uint64(count))
}

// RecordExportError counts failed batch exports.
func (c *Collector) RecordExportError() {
	c.exportErrors.Add(1)
}

// SetQueueDepth records the current queue length.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Store(int64(depth))
}

// Process inspects incoming resource spans for cardinality tracking.
// Called by the receivers before records enter the engine.
func (c *Collector) Process(resourceSpans []*tracepb.ResourceSpans) {
	var spans uint64
	for _, rs := range resourceSpans {
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				spans++
				c.spanNames.Add([]byte(span.GetName()))
				if id := span.GetTraceId(); len(id) > 0 {
					c.traces.Add(id)
				}
			}
		}
	}
	c.spansSeen.Add(spans)
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	Enqueued          uint64 `json:"enqueued"`
	Dropped           uint64 `json:"dropped"`
	Exported          uint64 `json:"exported"`
	ExportErrors      uint64 `json:"export_errors"`
	QueueDepth        int64  `json:"queue_depth"`
	SpansSeen         uint64 `json:"spans_seen"`
	DistinctSpanNames int64  `json:"distinct_span_names"`
	DistinctTraces    int64  `json:"distinct_traces"`
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Enqueued:          c.enqueued.Load(),
		Dropped:           c.dropped.Load(),
		Exported:          c.exported.Load(),
		ExportErrors:      c.exportErrors.Load(),
		QueueDepth:        c.queueDepth.Load(),
		SpansSeen:         c.spansSeen.Load(),
		DistinctSpanNames: c.spanNames.Count(),
		DistinctTraces:    c.traces.Count(),
	}
}

// ServeHTTP writes the snapshot as JSON.
func (c *Collector) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.Snapshot())
}

// StartPeriodicLogging logs the snapshot at the given interval until ctx is
// canceled.
func (c *Collector) StartPeriodicLogging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := c.Snapshot()
			logging.Info("engine stats", logging.F(
				"enqueued", s.Enqueued,
				"dropped", s.Dropped,
				"exported", s.Exported,
				"export_errors", s.ExportErrors,
				"queue_depth", s.QueueDepth,
				"spans_seen", s.SpansSeen,
				"distinct_span_names", s.DistinctSpanNames,
				"distinct_traces", s.DistinctTraces,
			))
		}
	}
}
