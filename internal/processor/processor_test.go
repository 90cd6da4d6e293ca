package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Mock sink for testing
type mockSink struct {
	mu            sync.Mutex
	batches       [][]*tracepb.ResourceSpans
	err           error
	shutdownCalls int
	shutdownErr   error
	panicOnExport bool

	// When set, Export signals exportStarted and then blocks until release
	// is closed.
	exportStarted chan struct{}
	release       chan struct{}
}

func (m *mockSink) Export(ctx context.Context, spans []*tracepb.ResourceSpans) error {
	if m.exportStarted != nil {
		select {
		case m.exportStarted <- struct{}{}:
		default:
		}
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnExport {
		panic("sink exploded")
	}
	if m.err != nil {
		return m.err
	}
	batch := make([]*tracepb.ResourceSpans, len(spans))
	copy(batch, spans)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockSink) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownCalls++
	return m.shutdownErr
}

func (m *mockSink) getBatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockSink) getExportedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.batches {
		total += len(b)
	}
	return total
}

func (m *mockSink) getExportedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, b := range m.batches {
		for _, rs := range b {
			for _, attr := range rs.GetResource().GetAttributes() {
				if attr.Key == "order" {
					names = append(names, attr.Value.GetStringValue())
				}
			}
		}
	}
	return names
}

func (m *mockSink) getShutdownCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdownCalls
}

func (m *mockSink) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Mock observer for testing
type mockObserver struct {
	mu           sync.Mutex
	enqueued     int
	dropped      int
	exported     int
	exportErrors int
	queueDepth   int
}

func (m *mockObserver) RecordEnqueued(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued += count
}

func (m *mockObserver) RecordDropped(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped += count
}

func (m *mockObserver) RecordExported(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exported += count
}

func (m *mockObserver) RecordExportError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exportErrors++
}

func (m *mockObserver) SetQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepth = depth
}

func (m *mockObserver) counts() (enqueued, dropped, exported, exportErrors int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueued, m.dropped, m.exported, m.exportErrors
}

func makeResourceSpans(order string) *tracepb.ResourceSpans {
	return &tracepb.ResourceSpans{
		Resource: &resourcepb.Resource{
			Attributes: []*commonpb.KeyValue{
				{Key: "order", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: order}}},
			},
		},
		ScopeSpans: []*tracepb.ScopeSpans{
			{Spans: []*tracepb.Span{{Name: "test-span"}}},
		},
	}
}

func shutdownOK(t *testing.T, p *BatchProcessor) {
	t.Helper()
	if ok := p.Shutdown(context.Background()).Wait(5 * time.Second); !ok {
		t.Fatal("shutdown did not complete successfully")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	if cfg.MaxQueueSize != DefaultMaxQueueSize {
		t.Errorf("expected queue size %d, got %d", DefaultMaxQueueSize, cfg.MaxQueueSize)
	}
	if cfg.ScheduleDelay != DefaultScheduleDelay {
		t.Errorf("expected schedule delay %v, got %v", DefaultScheduleDelay, cfg.ScheduleDelay)
	}
	if cfg.ExportTimeout != DefaultExportTimeout {
		t.Errorf("expected export timeout %v, got %v", DefaultExportTimeout, cfg.ExportTimeout)
	}
	if cfg.MaxExportBatchSize != DefaultMaxExportBatchSize {
		t.Errorf("expected batch size %d, got %d", DefaultMaxExportBatchSize, cfg.MaxExportBatchSize)
	}
}

func TestApplyDefaultsClampsBatchSize(t *testing.T) {
	cfg := Config{MaxQueueSize: 10, MaxExportBatchSize: 100}
	cfg.applyDefaults()

	if cfg.MaxExportBatchSize != 10 {
		t.Errorf("expected batch size clamped to 10, got %d", cfg.MaxExportBatchSize)
	}
}

func TestEnqueueNilIgnored(t *testing.T) {
	snk := &mockSink{}
	obs := &mockObserver{}
	p := New(snk, Config{ScheduleDelay: time.Hour}, WithObserver(obs))
	defer shutdownOK(t, p)

	p.Enqueue(nil)

	enqueued, dropped, _, _ := obs.counts()
	if enqueued != 0 || dropped != 0 {
		t.Errorf("nil record must not be counted, got enqueued=%d dropped=%d", enqueued, dropped)
	}
}

func TestQueueDepthAndCapacity(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 16, MaxExportBatchSize: 16, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	if p.QueueCapacity() != 16 {
		t.Errorf("expected capacity 16, got %d", p.QueueCapacity())
	}
	p.Enqueue(makeResourceSpans("a"))
	if p.QueueDepth() < 0 || p.QueueDepth() > 1 {
		t.Errorf("expected depth 0 or 1 (worker may have drained), got %d", p.QueueDepth())
	}
}

func TestForceFlushExportsAllQueued(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	for i := 0; i < 25; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush did not complete successfully")
	}

	if got := snk.getExportedCount(); got != 25 {
		t.Errorf("expected 25 records exported, got %d", got)
	}
}

func TestForceFlushRespectsBatchCap(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	for i := 0; i < 25; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush did not complete successfully")
	}

	snk.mu.Lock()
	defer snk.mu.Unlock()
	for i, b := range snk.batches {
		if len(b) > 10 {
			t.Errorf("batch %d exceeds cap: %d records", i, len(b))
		}
	}
}

func TestForceFlushEmptyQueue(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("empty flush did not complete successfully")
	}
	if got := snk.getBatchCount(); got != 0 {
		t.Errorf("expected no sink calls for empty flush, got %d", got)
	}
}

func TestForceFlushSucceedsDespiteExportFailure(t *testing.T) {
	snk := &mockSink{err: errors.New("downstream unavailable")}
	obs := &mockObserver{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour}, WithObserver(obs))
	defer shutdownOK(t, p)

	for i := 0; i < 5; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush must succeed even when exports fail")
	}

	_, _, _, exportErrors := obs.counts()
	if exportErrors == 0 {
		t.Error("expected export errors to be recorded")
	}
}

func TestExportFailureDoesNotStopWorker(t *testing.T) {
	snk := &mockSink{err: errors.New("downstream unavailable")}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	p.Enqueue(makeResourceSpans("fails"))
	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush did not complete")
	}

	// Recover the sink; subsequent records must flow again.
	snk.setErr(nil)
	p.Enqueue(makeResourceSpans("works"))
	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("second flush did not complete")
	}

	if got := snk.getExportedCount(); got != 1 {
		t.Errorf("expected 1 record exported after recovery, got %d", got)
	}
}

func TestSinkPanicRecovered(t *testing.T) {
	snk := &mockSink{panicOnExport: true}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})

	p.Enqueue(makeResourceSpans("boom"))
	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush did not complete after sink panic")
	}

	snk.mu.Lock()
	snk.panicOnExport = false
	snk.mu.Unlock()
	shutdownOK(t, p)
}

func TestFIFOOrderPreserved(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 3, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	const n = 9
	for i := 0; i < n; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%03d", i)))
	}

	if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
		t.Fatal("flush did not complete")
	}

	names := snk.getExportedNames()
	if len(names) != n {
		t.Fatalf("expected %d records, got %d", n, len(names))
	}
	for i, name := range names {
		if want := fmt.Sprintf("rs-%03d", i); name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, name)
		}
	}
}

func TestEarlyWakeExportsFullBatch(t *testing.T) {
	snk := &mockSink{}
	// Schedule delay far in the future: only the size threshold can trigger.
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 5, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	for i := 0; i < 5; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	deadline := time.Now().Add(5 * time.Second)
	for snk.getExportedCount() < 5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := snk.getExportedCount(); got != 5 {
		t.Errorf("expected 5 records exported without waiting for the timer, got %d", got)
	}
}

func TestTimerExportsPartialBatch(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 100, ScheduleDelay: 50 * time.Millisecond})
	defer shutdownOK(t, p)

	p.Enqueue(makeResourceSpans("lonely"))

	deadline := time.Now().Add(5 * time.Second)
	for snk.getExportedCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := snk.getExportedCount(); got != 1 {
		t.Errorf("expected the timer to export the partial batch, got %d records", got)
	}
}

func TestDropWhenQueueFull(t *testing.T) {
	snk := &mockSink{
		exportStarted: make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	obs := &mockObserver{}
	p := New(snk, Config{MaxQueueSize: 4, MaxExportBatchSize: 1, ScheduleDelay: time.Hour}, WithObserver(obs))

	// Park the worker inside an export.
	p.Enqueue(makeResourceSpans("parked"))
	<-snk.exportStarted

	// Fill the queue past capacity while the worker is busy.
	const attempts = 10
	for i := 0; i < attempts; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	enqueued, dropped, _, _ := obs.counts()
	if enqueued+dropped != attempts+1 {
		t.Errorf("accounting mismatch: enqueued=%d + dropped=%d != %d attempts", enqueued, dropped, attempts+1)
	}
	if dropped == 0 {
		t.Error("expected drops with a full queue and a parked worker")
	}

	close(snk.release)
	shutdownOK(t, p)
}

func TestEnqueueAfterShutdownDropped(t *testing.T) {
	snk := &mockSink{}
	obs := &mockObserver{}
	p := New(snk, Config{ScheduleDelay: time.Hour}, WithObserver(obs))

	shutdownOK(t, p)

	p.Enqueue(makeResourceSpans("late"))

	_, dropped, _, _ := obs.counts()
	if dropped != 1 {
		t.Errorf("expected 1 drop after shutdown, got %d", dropped)
	}
}

func TestShutdownExportsQueuedRecords(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 100, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})

	for i := 0; i < 7; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	shutdownOK(t, p)

	if got := snk.getExportedCount(); got != 7 {
		t.Errorf("expected 7 records exported during shutdown, got %d", got)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{ScheduleDelay: time.Hour})

	first := p.Shutdown(context.Background())
	second := p.Shutdown(context.Background())

	if first != second {
		t.Error("repeated Shutdown must return the same outcome")
	}
	if ok := first.Wait(5 * time.Second); !ok {
		t.Fatal("shutdown did not complete successfully")
	}
	if got := snk.getShutdownCalls(); got != 1 {
		t.Errorf("expected exactly 1 sink shutdown call, got %d", got)
	}
}

func TestShutdownFailsWhenSinkShutdownFails(t *testing.T) {
	snk := &mockSink{shutdownErr: errors.New("close failed")}
	p := New(snk, Config{ScheduleDelay: time.Hour})

	out := p.Shutdown(context.Background())
	out.Wait(5 * time.Second)

	if out.IsSuccess() {
		t.Error("shutdown outcome must fail when the sink shutdown fails")
	}
}

func TestForceFlushAfterShutdown(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{ScheduleDelay: time.Hour})

	shutdownOK(t, p)

	out := p.ForceFlush()
	if !out.IsResolved() || !out.IsSuccess() {
		t.Error("flush after shutdown must resolve immediately to success")
	}
}

func TestConcurrentForceFlushJoins(t *testing.T) {
	snk := &mockSink{}
	p := New(snk, Config{MaxQueueSize: 1000, MaxExportBatchSize: 10, ScheduleDelay: time.Hour})
	defer shutdownOK(t, p)

	for i := 0; i < 100; i++ {
		p.Enqueue(makeResourceSpans(fmt.Sprintf("rs-%d", i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok := p.ForceFlush().Wait(5 * time.Second); !ok {
				t.Error("concurrent flush did not complete successfully")
			}
		}()
	}
	wg.Wait()

	if got := snk.getExportedCount(); got != 100 {
		t.Errorf("expected 100 records exported, got %d", got)
	}
}
