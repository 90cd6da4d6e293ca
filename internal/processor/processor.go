// Package processor implements the span batching engine: a bounded queue
// absorbing bursts from producers, a single worker forming batches by size
// or time, and flush/shutdown coordination toward a pluggable sink.
//
// Producers never block: when the queue is full, records are dropped and
// counted. Exports are strictly serialized through the one worker, which
// bounds sink load and preserves FIFO order across batches.
package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/szibis/spans-governor/internal/logging"
	"github.com/szibis/spans-governor/internal/result"
	"github.com/szibis/spans-governor/internal/sink"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Defaults mirror the common OTLP span processor settings.
const (
	DefaultMaxQueueSize       = 2048
	DefaultScheduleDelay      = 5 * time.Second
	DefaultExportTimeout      = 30 * time.Second
	DefaultMaxExportBatchSize = 512
)

// Config holds the processor configuration.
type Config struct {
	// MaxQueueSize is the queue capacity; records beyond it are dropped.
	MaxQueueSize int
	// ScheduleDelay is the batching timer period: the worker exports at
	// most this long after the previous export completed.
	ScheduleDelay time.Duration
	// ExportTimeout bounds a single sink export call; expiry counts as
	// failure.
	ExportTimeout time.Duration
	// MaxExportBatchSize caps batch size and sets the early-wake threshold.
	MaxExportBatchSize int
}

func (c *Config) applyDefaults() {
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.ScheduleDelay <= 0 {
		c.ScheduleDelay = DefaultScheduleDelay
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = DefaultExportTimeout
	}
	if c.MaxExportBatchSize <= 0 {
		c.MaxExportBatchSize = DefaultMaxExportBatchSize
	}
	if c.MaxExportBatchSize > c.MaxQueueSize {
		c.MaxExportBatchSize = c.MaxQueueSize
	}
}

// Option configures a BatchProcessor.
type Option func(*BatchProcessor)

// WithObserver attaches an observer for engine telemetry.
func WithObserver(obs Observer) Option {
	return func(p *BatchProcessor) { p.obs = obs }
}

// BatchProcessor batches enqueued span records and drives the sink.
// The zero value is not usable; construct with New, which starts the worker.
// A stopped processor cannot be restarted.
type BatchProcessor struct {
	cfg  Config
	sink sink.Sink
	obs  Observer

	queue *boundedQueue
	wake  chan struct{}

	// flushRequest is the single pending-flush slot. Set by flush callers
	// with CAS, resolved and cleared by the worker.
	flushRequest atomic.Pointer[result.Outcome]

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool

	shutdownOnce    sync.Once
	shutdownOutcome *result.Outcome

	// batch and nextExport are owned by the worker goroutine; nothing else
	// touches them.
	batch      []*tracepb.ResourceSpans
	nextExport time.Time
}

// New creates a BatchProcessor and starts its worker goroutine.
func New(snk sink.Sink, cfg Config, opts ...Option) *BatchProcessor {
	cfg.applyDefaults()
	p := &BatchProcessor{
		cfg:    cfg,
		sink:   snk,
		queue:  newBoundedQueue(cfg.MaxQueueSize),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		batch:  make([]*tracepb.ResourceSpans, 0, cfg.MaxExportBatchSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.worker()
	return p
}

// Enqueue offers a record to the queue. It never blocks: when the queue is
// at capacity, or the processor has been shut down, the record is dropped
// and counted. Nothing is ever reported back to the producer.
func (p *BatchProcessor) Enqueue(rs *tracepb.ResourceSpans) {
	if rs == nil {
		return
	}
	if p.stopped.Load() || !p.queue.Offer(rs) {
		droppedTotal.Inc()
		p.observeDropped(1)
		return
	}
	enqueuedTotal.Inc()
	queueDepth.Set(float64(p.queue.Len()))
	p.observeEnqueued(1)

	// Early wake when a full batch is waiting. Liveness optimization only;
	// the timer guarantees eventual export.
	if p.queue.Len() >= p.cfg.MaxExportBatchSize {
		p.signal()
	}
}

// QueueDepth returns the current number of queued records.
func (p *BatchProcessor) QueueDepth() int {
	return p.queue.Len()
}

// QueueCapacity returns the configured queue capacity.
func (p *BatchProcessor) QueueCapacity() int {
	return p.queue.Cap()
}

// ForceFlush requests that every record currently queued be offered to the
// sink, and returns an outcome resolved once that has happened. Export
// failures do not fail the flush. Concurrent callers join the in-flight
// flush rather than starting another.
func (p *BatchProcessor) ForceFlush() *result.Outcome {
	if p.stopped.Load() {
		return result.Success()
	}
	o := result.New()
	if p.flushRequest.CompareAndSwap(nil, o) {
		p.signal()
	}
	if cur := p.flushRequest.Load(); cur != nil {
		return cur
	}
	// The worker resolved and cleared the slot between the swap and the
	// load above. The flush it just served covered our request.
	return result.Success()
}

// Shutdown flushes, stops the worker, and shuts down the sink. The combined
// outcome succeeds only if both the flush and the sink shutdown succeeded.
// Repeated calls return the outcome of the first.
func (p *BatchProcessor) Shutdown(ctx context.Context) *result.Outcome {
	p.shutdownOnce.Do(func() {
		out := result.New()
		p.shutdownOutcome = out
		flush := p.ForceFlush()
		go func() {
			flushOK := flush.Wait(0)
			p.stopped.Store(true)
			close(p.stopCh)
			<-p.doneCh
			err := p.sink.Shutdown(ctx)
			if err != nil {
				logging.Error("sink shutdown failed", logging.F("error", err.Error()))
			}
			out.Resolve(flushOK && err == nil)
		}()
	})
	return p.shutdownOutcome
}

func (p *BatchProcessor) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// worker is the single scheduling loop: serve a pending flush, sleep until
// the export deadline or a wake signal, drain, export when the batch is full
// or the deadline has passed, re-arm. A stop signal exits immediately; the
// partial batch is not exported here (the shutdown path flushes first).
func (p *BatchProcessor) worker() {
	defer func() {
		// Resolve any flush installed after the shutdown flush was served;
		// everything queued before shutdown has already been offered.
		if req := p.flushRequest.Swap(nil); req != nil {
			req.Succeed()
		}
		close(p.doneCh)
	}()

	p.nextExport = time.Now().Add(p.cfg.ScheduleDelay)
	timer := time.NewTimer(p.cfg.ScheduleDelay)
	defer timer.Stop()

	for {
		if req := p.flushRequest.Load(); req != nil {
			p.flush(req)
		}

		select {
		case <-p.stopCh:
			return
		case <-timer.C:
		case <-p.wake:
		}

		p.drain()

		if len(p.batch) >= p.cfg.MaxExportBatchSize || !time.Now().Before(p.nextExport) {
			p.exportBatch()
			p.rearm(timer)
		}
	}
}

// drain moves queued records into the batch up to the batch cap.
func (p *BatchProcessor) drain() {
	for len(p.batch) < p.cfg.MaxExportBatchSize {
		rs, ok := p.queue.Poll()
		if !ok {
			break
		}
		p.batch = append(p.batch, rs)
	}
	p.observeQueueDepth()
}

// flush drains the queue completely, exporting every time the batch fills,
// then exports the remainder and resolves the request. Every record queued
// at the time the flush was requested is offered to the sink before the
// outcome resolves; whether the sink accepted it does not matter here.
func (p *BatchProcessor) flush(req *result.Outcome) {
	for {
		rs, ok := p.queue.Poll()
		if !ok {
			break
		}
		p.batch = append(p.batch, rs)
		if len(p.batch) >= p.cfg.MaxExportBatchSize {
			p.exportBatch()
		}
	}
	p.exportBatch()
	p.observeQueueDepth()
	flushesTotal.Inc()
	req.Succeed()
	p.flushRequest.CompareAndSwap(req, nil)
}

// exportBatch hands the current batch to the sink, bounded by the export
// timeout. The batch is cleared whether the export succeeded or not; failed
// batches are never retried or re-enqueued.
func (p *BatchProcessor) exportBatch() {
	if len(p.batch) == 0 {
		return
	}
	size := len(p.batch)

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ExportTimeout)
	err := p.export(ctx, p.batch)
	cancel()

	if err != nil {
		logging.Warn("export failed, batch dropped", logging.F(
			"error", err.Error(),
			"batch_size", size,
		))
		exportFailuresTotal.Inc()
		p.observeExportError()
	} else {
		exportedTotal.Add(float64(size))
		p.observeExported(size)
	}

	for i := range p.batch {
		p.batch[i] = nil
	}
	p.batch = p.batch[:0]
}

// export invokes the sink, converting a panic into an error so a faulty
// sink cannot take down the worker.
func (p *BatchProcessor) export(ctx context.Context, batch []*tracepb.ResourceSpans) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return p.sink.Export(ctx, batch)
}

// rearm schedules the next timed export one ScheduleDelay from now.
func (p *BatchProcessor) rearm(timer *time.Timer) {
	p.nextExport = time.Now().Add(p.cfg.ScheduleDelay)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(p.cfg.ScheduleDelay)
}
