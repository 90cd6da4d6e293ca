package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

// resetDefaults restores the default logger after a test that mutates it.
func resetDefaults(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetResource(nil)
		SetHook(nil)
	})
}

func captureEntry(t *testing.T, buf *bytes.Buffer) entry {
	t.Helper()
	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("log line is not valid JSON: %v\n%s", err, buf.String())
	}
	return e
}

func TestInfoEntryShape(t *testing.T) {
	resetDefaults(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("server started", F("addr", ":4317", "protocol", "grpc"))

	e := captureEntry(t, &buf)
	if e.SeverityText != "INFO" {
		t.Errorf("expected INFO, got %s", e.SeverityText)
	}
	if e.SeverityNumber != 9 {
		t.Errorf("expected severity number 9, got %d", e.SeverityNumber)
	}
	if e.Body != "server started" {
		t.Errorf("unexpected body %q", e.Body)
	}
	if e.Attributes["addr"] != ":4317" || e.Attributes["protocol"] != "grpc" {
		t.Errorf("attributes not carried: %v", e.Attributes)
	}
	if e.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestSeverityNumbers(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelInfo, 9},
		{LevelWarn, 13},
		{LevelError, 17},
		{LevelFatal, 21},
	}
	for _, tt := range tests {
		if got := SeverityNumber(tt.level); got != tt.want {
			t.Errorf("SeverityNumber(%s) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestWarnAndError(t *testing.T) {
	resetDefaults(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("queue almost full")
	e := captureEntry(t, &buf)
	if e.SeverityText != "WARN" || e.SeverityNumber != 13 {
		t.Errorf("unexpected warn entry: %+v", e)
	}

	buf.Reset()
	Error("export failed", F("error", "connection refused"))
	e = captureEntry(t, &buf)
	if e.SeverityText != "ERROR" || e.Attributes["error"] != "connection refused" {
		t.Errorf("unexpected error entry: %+v", e)
	}
}

func TestResourceAttached(t *testing.T) {
	resetDefaults(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetResource(map[string]string{"service.name": "spans-governor"})

	Info("hello")

	e := captureEntry(t, &buf)
	if e.Resource["service.name"] != "spans-governor" {
		t.Errorf("resource not attached: %v", e.Resource)
	}
}

func TestHookInvoked(t *testing.T) {
	resetDefaults(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	var gotLevel Level
	var gotMsg string
	var gotAttrs map[string]interface{}
	SetHook(func(level Level, msg string, attrs map[string]interface{}) {
		gotLevel = level
		gotMsg = msg
		gotAttrs = attrs
	})

	Warn("dropping records", F("count", 3))

	if gotLevel != LevelWarn || gotMsg != "dropping records" {
		t.Errorf("hook saw %s %q", gotLevel, gotMsg)
	}
	if gotAttrs["count"] != 3 {
		t.Errorf("hook attrs not carried: %v", gotAttrs)
	}
}

func TestF(t *testing.T) {
	fields := F("a", 1, "b", "two")
	if fields["a"] != 1 || fields["b"] != "two" {
		t.Errorf("unexpected fields: %v", fields)
	}

	// Trailing value without a key is dropped.
	fields = F("a", 1, "orphan")
	if _, ok := fields["orphan"]; ok {
		t.Error("orphan key must be ignored")
	}

	// Non-string keys are skipped.
	fields = F(42, "value", "b", 2)
	if len(fields) != 1 || fields["b"] != 2 {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestOneLinePerEntry(t *testing.T) {
	resetDefaults(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("first")
	Info("second")

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	if lines != 2 {
		t.Errorf("expected 2 newline-terminated entries, got %d", lines)
	}
}
