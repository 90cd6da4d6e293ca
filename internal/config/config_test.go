package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
	if cfg.QueueSize != 2048 {
		t.Errorf("expected default queue size 2048, got %d", cfg.QueueSize)
	}
	if cfg.MaxExportBatchSize != 512 {
		t.Errorf("expected default batch size 512, got %d", cfg.MaxExportBatchSize)
	}
	if cfg.ScheduleDelay != 5*time.Second {
		t.Errorf("expected default schedule delay 5s, got %s", cfg.ScheduleDelay)
	}
	if cfg.ExportTimeout != 30*time.Second {
		t.Errorf("expected default export timeout 30s, got %s", cfg.ExportTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero queue size", func(c *Config) { c.QueueSize = 0 }, "queue-size"},
		{"negative queue size", func(c *Config) { c.QueueSize = -1 }, "queue-size"},
		{"zero batch size", func(c *Config) { c.MaxExportBatchSize = 0 }, "max-batch-size"},
		{"batch exceeds queue", func(c *Config) { c.QueueSize = 10; c.MaxExportBatchSize = 11 }, "max-batch-size"},
		{"zero schedule delay", func(c *Config) { c.ScheduleDelay = 0 }, "schedule-delay"},
		{"negative export timeout", func(c *Config) { c.ExportTimeout = -time.Second }, "export-timeout"},
		{"bad sink protocol", func(c *Config) { c.SinkProtocol = "udp" }, "sink-protocol"},
		{"empty sink endpoint", func(c *Config) { c.SinkEndpoint = "" }, "sink-endpoint"},
		{"bad compression", func(c *Config) { c.SinkCompression = "brotli" }, "sink-compression"},
		{"tls without cert", func(c *Config) { c.ReceiverTLSEnabled = true }, "receiver-tls-cert"},
		{"zero memory ratio", func(c *Config) { c.MemoryLimitRatio = 0 }, "memory-limit-ratio"},
		{"memory ratio above one", func(c *Config) { c.MemoryLimitRatio = 1.5 }, "memory-limit-ratio"},
		{"bad telemetry protocol", func(c *Config) { c.TelemetryEndpoint = "localhost:4317"; c.TelemetryProtocol = "udp" }, "telemetry-protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAcceptsHTTPSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkProtocol = "http"
	cfg.SinkEndpoint = "https://tempo.internal:4318"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestSinkAuthConfigParsesHeaders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkAuthBearerToken = "secret"
	cfg.SinkAuthHeaders = "X-Scope-OrgID=tenant-a, X-Custom = value"

	ac := cfg.SinkAuthConfig()
	if ac.BearerToken != "secret" {
		t.Errorf("expected bearer token, got %q", ac.BearerToken)
	}
	if got := ac.Headers["X-Scope-OrgID"]; got != "tenant-a" {
		t.Errorf("expected tenant header, got %q", got)
	}
	if got := ac.Headers["X-Custom"]; got != "value" {
		t.Errorf("expected trimmed header value, got %q", got)
	}
}

func TestSinkAuthConfigMalformedHeaderIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkAuthHeaders = "no-equals-sign"

	if got := len(cfg.SinkAuthConfig().Headers); got != 0 {
		t.Errorf("expected malformed header pair ignored, got %d headers", got)
	}
}

func TestSinkConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkEndpoint = "https://collector:4318"
	cfg.SinkProtocol = "http"
	cfg.SinkCompression = "zstd"
	cfg.SinkCompressionLevel = 3
	cfg.SinkForceHTTP2 = true

	sc := cfg.SinkConfig()
	if sc.Endpoint != "https://collector:4318" {
		t.Errorf("endpoint not carried over, got %q", sc.Endpoint)
	}
	if string(sc.Protocol) != "http" {
		t.Errorf("protocol not carried over, got %q", sc.Protocol)
	}
	if string(sc.Compression.Type) != "zstd" {
		t.Errorf("compression type not carried over, got %q", sc.Compression.Type)
	}
	if int(sc.Compression.Level) != 3 {
		t.Errorf("compression level not carried over, got %d", sc.Compression.Level)
	}
	if !sc.HTTPClient.ForceAttemptHTTP2 {
		t.Error("force HTTP/2 not carried over")
	}
}

func TestProcessorConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 100
	cfg.MaxExportBatchSize = 25
	cfg.ScheduleDelay = 2 * time.Second
	cfg.ExportTimeout = 10 * time.Second

	pc := cfg.ProcessorConfig()
	if pc.MaxQueueSize != 100 || pc.MaxExportBatchSize != 25 {
		t.Errorf("sizes not carried over: %+v", pc)
	}
	if pc.ScheduleDelay != 2*time.Second || pc.ExportTimeout != 10*time.Second {
		t.Errorf("durations not carried over: %+v", pc)
	}
}

func TestReceiverConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GRPCListenAddr = ":14317"
	cfg.HTTPListenAddr = ":14318"
	cfg.ReceiverTLSEnabled = true
	cfg.ReceiverTLSCertFile = "/certs/server.pem"
	cfg.ReceiverTLSKeyFile = "/certs/server.key"
	cfg.ReceiverAuthEnabled = true
	cfg.ReceiverAuthBearerToken = "secret"

	gc := cfg.GRPCReceiverConfig()
	if gc.Addr != ":14317" {
		t.Errorf("gRPC address not carried over, got %q", gc.Addr)
	}
	if !gc.TLS.Enabled || gc.TLS.CertFile != "/certs/server.pem" {
		t.Errorf("TLS config not carried over: %+v", gc.TLS)
	}
	if !gc.Auth.Enabled || gc.Auth.BearerToken != "secret" {
		t.Errorf("auth config not carried over: %+v", gc.Auth)
	}

	hc := cfg.HTTPReceiverConfig()
	if hc.Addr != ":14318" {
		t.Errorf("HTTP address not carried over, got %q", hc.Addr)
	}
}
