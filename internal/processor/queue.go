package processor

import (
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// boundedQueue is the fixed-capacity mailbox between producers and the
// worker. Built on a buffered channel: many producers offer concurrently,
// the single worker polls. Offer never blocks; at capacity the record is
// rejected and the caller decides what to count.
type boundedQueue struct {
	ch chan *tracepb.ResourceSpans
}

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{ch: make(chan *tracepb.ResourceSpans, capacity)}
}

// Offer appends the record if there is room. Returns false when full.
func (q *boundedQueue) Offer(rs *tracepb.ResourceSpans) bool {
	select {
	case q.ch <- rs:
		return true
	default:
		return false
	}
}

// Poll removes the oldest record. Returns false when the queue is empty.
func (q *boundedQueue) Poll() (*tracepb.ResourceSpans, bool) {
	select {
	case rs := <-q.ch:
		return rs, true
	default:
		return nil, false
	}
}

func (q *boundedQueue) Len() int { return len(q.ch) }

func (q *boundedQueue) Cap() int { return cap(q.ch) }
