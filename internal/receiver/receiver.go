// Package receiver ingests spans via OTLP gRPC and HTTP and feeds them into
// the batching engine.
package receiver

import (
	"github.com/szibis/spans-governor/internal/cardinality"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Enqueuer accepts span records into the engine. Satisfied by
// *processor.BatchProcessor.
type Enqueuer interface {
	Enqueue(rs *tracepb.ResourceSpans)
}

// StatsProcessor observes incoming spans before they enter the engine.
// Satisfied by *stats.Collector.
type StatsProcessor interface {
	Process(resourceSpans []*tracepb.ResourceSpans)
}

// ingest is the shared accept path for both protocols.
type ingest struct {
	enqueuer Enqueuer
	stats    StatsProcessor
	// dupes flags span IDs probably seen before. Advisory: duplicates are
	// counted, not rejected.
	dupes *cardinality.BloomTracker
}

func newIngest(enq Enqueuer, stats StatsProcessor) *ingest {
	return &ingest{
		enqueuer: enq,
		stats:    stats,
		dupes:    cardinality.NewBloom(1_000_000, 0.01),
	}
}

// accept tracks stats and enqueues each resource-spans record.
func (in *ingest) accept(protocol string, resourceSpans []*tracepb.ResourceSpans) {
	if len(resourceSpans) == 0 {
		return
	}

	if in.stats != nil {
		in.stats.Process(resourceSpans)
	}

	var spans int
	for _, rs := range resourceSpans {
		for _, ss := range rs.GetScopeSpans() {
			spans += len(ss.GetSpans())
			for _, span := range ss.GetSpans() {
				if len(span.GetSpanId()) == 0 {
					continue
				}
				key := make([]byte, 0, 24)
				key = append(key, span.GetTraceId()...)
				key = append(key, span.GetSpanId()...)
				if !in.dupes.Add(key) {
					duplicateSpansTotal.Inc()
				}
			}
		}
	}

	receivedRequestsTotal.WithLabelValues(protocol).Inc()
	receivedSpansTotal.WithLabelValues(protocol).Add(float64(spans))

	for _, rs := range resourceSpans {
		in.enqueuer.Enqueue(rs)
	}
}
