package processor

// Observer receives advisory telemetry about the engine itself. All methods
// must be fast and non-blocking; the engine calls them on the hot enqueue
// path and from the worker. A nil observer is valid and disables reporting.
// Observer calls never affect batching correctness.
type Observer interface {
	// RecordEnqueued is called after records are accepted into the queue.
	RecordEnqueued(count int)
	// RecordDropped is called when records are shed at enqueue time.
	RecordDropped(count int)
	// RecordExported is called after a batch is accepted by the sink.
	RecordExported(count int)
	// RecordExportError is called when an export fails or times out.
	RecordExportError()
	// SetQueueDepth reports the current queue length.
	SetQueueDepth(depth int)
}

func (p *BatchProcessor) observeEnqueued(n int) {
	if p.obs != nil {
		p.obs.RecordEnqueued(n)
	}
}

func (p *BatchProcessor) observeDropped(n int) {
	if p.obs != nil {
		p.obs.RecordDropped(n)
	}
}

func (p *BatchProcessor) observeExported(n int) {
	if p.obs != nil {
		p.obs.RecordExported(n)
	}
}

func (p *BatchProcessor) observeExportError() {
	if p.obs != nil {
		p.obs.RecordExportError()
	}
}

func (p *BatchProcessor) observeQueueDepth() {
	queueDepth.Set(float64(p.queue.Len()))
	if p.obs != nil {
		p.obs.SetQueueDepth(p.queue.Len())
	}
}
