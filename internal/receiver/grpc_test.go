package receiver

import (
	"context"
	"testing"
	"time"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

func TestGRPCExport(t *testing.T) {
	enq := &mockEnqueuer{}
	stats := &mockStats{}
	r := NewGRPC("localhost:0", enq, stats)

	resp, err := r.Export(context.Background(), &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{
			makeResourceSpans(1, 1, "span-a"),
			makeResourceSpans(2, 2, "span-b"),
		},
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if resp == nil {
		t.Fatal("expected non-nil response")
	}
	if got := enq.count(); got != 2 {
		t.Errorf("expected 2 enqueued records, got %d", got)
	}
	if stats.spans != 2 {
		t.Errorf("expected 2 spans observed, got %d", stats.spans)
	}
}

func TestGRPCExportEmpty(t *testing.T) {
	enq := &mockEnqueuer{}
	r := NewGRPC("localhost:0", enq, nil)

	resp, err := r.Export(context.Background(), &coltracepb.ExportTraceServiceRequest{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if resp == nil {
		t.Fatal("expected non-nil response")
	}
	if got := enq.count(); got != 0 {
		t.Errorf("expected no enqueued records, got %d", got)
	}
}

func TestGRPCStartStop(t *testing.T) {
	r := NewGRPC("localhost:0", &mockEnqueuer{}, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start()
	}()

	// Give the listener time to come up before stopping.
	time.Sleep(100 * time.Millisecond)

	r.Stop()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
