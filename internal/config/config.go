package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/szibis/spans-governor/internal/auth"
	"github.com/szibis/spans-governor/internal/compression"
	"github.com/szibis/spans-governor/internal/processor"
	"github.com/szibis/spans-governor/internal/receiver"
	"github.com/szibis/spans-governor/internal/sink"
	tlspkg "github.com/szibis/spans-governor/internal/tls"
)

// version is set at build time via ldflags
var version = "dev"

// Config holds the application configuration.
type Config struct {
	// Receiver settings
	GRPCListenAddr string
	HTTPListenAddr string

	// Receiver TLS settings
	ReceiverTLSEnabled    bool
	ReceiverTLSCertFile   string
	ReceiverTLSKeyFile    string
	ReceiverTLSCAFile     string
	ReceiverTLSClientAuth bool

	// Receiver Auth settings
	ReceiverAuthEnabled       bool
	ReceiverAuthBearerToken   string
	ReceiverAuthBasicUsername string
	ReceiverAuthBasicPassword string

	// Sink settings
	SinkEndpoint    string
	SinkProtocol    string
	SinkInsecure    bool
	SinkTimeout     time.Duration
	SinkDefaultPath string // Default path for OTLP HTTP sink when not in endpoint (default: /v1/traces)

	// Sink TLS settings
	SinkTLSEnabled            bool
	SinkTLSCertFile           string
	SinkTLSKeyFile            string
	SinkTLSCAFile             string
	SinkTLSInsecureSkipVerify bool
	SinkTLSServerName         string

	// Sink Auth settings
	SinkAuthBearerToken   string
	SinkAuthBasicUsername string
	SinkAuthBasicPassword string
	SinkAuthHeaders       string

	// Sink Compression settings
	SinkCompression      string
	SinkCompressionLevel int

	// Sink HTTP client settings
	SinkMaxIdleConns        int
	SinkMaxIdleConnsPerHost int
	SinkMaxConnsPerHost     int
	SinkIdleConnTimeout     time.Duration
	SinkDisableKeepAlives   bool
	SinkForceHTTP2          bool

	// Processor settings
	QueueSize          int
	MaxExportBatchSize int
	ScheduleDelay      time.Duration
	ExportTimeout      time.Duration

	// Stats settings
	StatsAddr        string
	StatsLogInterval time.Duration

	// Telemetry settings (OTLP self-monitoring)
	TelemetryEndpoint     string
	TelemetryProtocol     string
	TelemetryInsecure     bool
	TelemetryPushInterval time.Duration

	// Memory limit settings
	MemoryLimitRatio float64 // Ratio of container memory to use for GOMEMLIMIT (default: 0.9)

	// Shutdown settings
	ShutdownTimeout time.Duration

	// Flags
	ShowHelp    bool
	ShowVersion bool
}

// ParseFlags parses command line flags and returns the configuration.
func ParseFlags() *Config {
	cfg := DefaultConfig()

	// Config file flag
	var configFile string
	flag.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	// Receiver flags
	flag.StringVar(&cfg.GRPCListenAddr, "grpc-listen", ":4317", "gRPC receiver listen address")
	flag.StringVar(&cfg.HTTPListenAddr, "http-listen", ":4318", "HTTP receiver listen address")

	// Receiver TLS flags
	flag.BoolVar(&cfg.ReceiverTLSEnabled, "receiver-tls-enabled", false, "Enable TLS for receivers")
	flag.StringVar(&cfg.ReceiverTLSCertFile, "receiver-tls-cert", "", "Path to receiver TLS certificate file")
	flag.StringVar(&cfg.ReceiverTLSKeyFile, "receiver-tls-key", "", "Path to receiver TLS private key file")
	flag.StringVar(&cfg.ReceiverTLSCAFile, "receiver-tls-ca", "", "Path to CA certificate for client verification (mTLS)")
	flag.BoolVar(&cfg.ReceiverTLSClientAuth, "receiver-tls-client-auth", false, "Require client certificates (mTLS)")

	// Receiver Auth flags
	flag.BoolVar(&cfg.ReceiverAuthEnabled, "receiver-auth-enabled", false, "Enable authentication for receivers")
	flag.StringVar(&cfg.ReceiverAuthBearerToken, "receiver-auth-bearer-token", "", "Bearer token for receiver authentication")
	flag.StringVar(&cfg.ReceiverAuthBasicUsername, "receiver-auth-basic-username", "", "Basic auth username for receivers")
	flag.StringVar(&cfg.ReceiverAuthBasicPassword, "receiver-auth-basic-password", "", "Basic auth password for receivers")

	// Sink flags (supports OTLP gRPC/HTTP to any backend: otel-collector, Jaeger, Tempo, etc.)
	flag.StringVar(&cfg.SinkEndpoint, "sink-endpoint", "localhost:4317", "OTLP sink endpoint (host:port or URL)")
	flag.StringVar(&cfg.SinkProtocol, "sink-protocol", "grpc", "Sink protocol: grpc (default, most backends) or http (OTLP/HTTP)")
	flag.BoolVar(&cfg.SinkInsecure, "sink-insecure", true, "Use insecure connection (no TLS) for sink")
	flag.DurationVar(&cfg.SinkTimeout, "sink-timeout", 30*time.Second, "Sink request timeout")
	flag.StringVar(&cfg.SinkDefaultPath, "sink-default-path", "/v1/traces", "Default HTTP path when endpoint has no path")

	// Sink TLS flags
	flag.BoolVar(&cfg.SinkTLSEnabled, "sink-tls-enabled", false, "Enable custom TLS config for sink")
	flag.StringVar(&cfg.SinkTLSCertFile, "sink-tls-cert", "", "Path to client certificate file (mTLS)")
	flag.StringVar(&cfg.SinkTLSKeyFile, "sink-tls-key", "", "Path to client private key file (mTLS)")
	flag.StringVar(&cfg.SinkTLSCAFile, "sink-tls-ca", "", "Path to CA certificate for server verification")
	flag.BoolVar(&cfg.SinkTLSInsecureSkipVerify, "sink-tls-skip-verify", false, "Skip TLS certificate verification")
	flag.StringVar(&cfg.SinkTLSServerName, "sink-tls-server-name", "", "Override server name for TLS verification")

	// Sink Auth flags
	flag.StringVar(&cfg.SinkAuthBearerToken, "sink-auth-bearer-token", "", "Bearer token for sink authentication")
	flag.StringVar(&cfg.SinkAuthBasicUsername, "sink-auth-basic-username", "", "Basic auth username for sink")
	flag.StringVar(&cfg.SinkAuthBasicPassword, "sink-auth-basic-password", "", "Basic auth password for sink")
	flag.StringVar(&cfg.SinkAuthHeaders, "sink-auth-headers", "", "Custom headers for sink (format: key1=value1,key2=value2)")

	// Sink Compression flags (gRPC uses built-in compression, HTTP uses Content-Encoding)
	flag.StringVar(&cfg.SinkCompression, "sink-compression", "none", "Compression: none, gzip (widely supported), zstd (high perf), snappy, lz4")
	flag.IntVar(&cfg.SinkCompressionLevel, "sink-compression-level", 0, "Compression level (algorithm-specific, 0 for default)")

	// Sink HTTP client flags
	flag.IntVar(&cfg.SinkMaxIdleConns, "sink-max-idle-conns", 100, "Maximum idle connections for HTTP sink")
	flag.IntVar(&cfg.SinkMaxIdleConnsPerHost, "sink-max-idle-conns-per-host", 100, "Maximum idle connections per host for HTTP sink")
	flag.IntVar(&cfg.SinkMaxConnsPerHost, "sink-max-conns-per-host", 0, "Maximum connections per host for HTTP sink (0 = unlimited)")
	flag.DurationVar(&cfg.SinkIdleConnTimeout, "sink-idle-conn-timeout", 90*time.Second, "Idle connection timeout for HTTP sink")
	flag.BoolVar(&cfg.SinkDisableKeepAlives, "sink-disable-keep-alives", false, "Disable HTTP keep-alives for sink")
	flag.BoolVar(&cfg.SinkForceHTTP2, "sink-force-http2", false, "Force HTTP/2 for the HTTP sink")

	// Processor flags
	flag.IntVar(&cfg.QueueSize, "queue-size", processor.DefaultMaxQueueSize, "Maximum number of resource-spans records held in the queue")
	flag.IntVar(&cfg.MaxExportBatchSize, "max-batch-size", processor.DefaultMaxExportBatchSize, "Maximum records per export batch")
	flag.DurationVar(&cfg.ScheduleDelay, "schedule-delay", processor.DefaultScheduleDelay, "Delay between scheduled batch exports")
	flag.DurationVar(&cfg.ExportTimeout, "export-timeout", processor.DefaultExportTimeout, "Per-batch export timeout")

	// Stats flags
	flag.StringVar(&cfg.StatsAddr, "stats-addr", ":9090", "Stats and metrics HTTP listen address")
	flag.DurationVar(&cfg.StatsLogInterval, "stats-log-interval", time.Minute, "Interval for periodic stats logging (0 = disabled)")

	// Telemetry flags
	flag.StringVar(&cfg.TelemetryEndpoint, "telemetry-endpoint", "", "OTLP endpoint for self-monitoring telemetry (empty = disabled)")
	flag.StringVar(&cfg.TelemetryProtocol, "telemetry-protocol", "grpc", "Telemetry protocol: grpc or http")
	flag.BoolVar(&cfg.TelemetryInsecure, "telemetry-insecure", true, "Use insecure connection for telemetry")
	flag.DurationVar(&cfg.TelemetryPushInterval, "telemetry-push-interval", 30*time.Second, "Telemetry metric push interval")

	// Memory flags
	flag.Float64Var(&cfg.MemoryLimitRatio, "memory-limit-ratio", 0.9, "Ratio of container memory to use for GOMEMLIMIT")

	// Shutdown flags
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Help and version flags
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help (shorthand)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version (shorthand)")

	flag.Parse()

	// Load YAML config if specified
	if configFile != "" {
		yamlCfg, err := LoadYAML(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file %s: %v\n", configFile, err)
			os.Exit(1)
		}
		cfg = yamlCfg.ToConfig()
	}

	// Apply CLI overrides for explicitly set flags
	applyFlagOverrides(cfg)

	return cfg
}

// applyFlagOverrides applies CLI flag values that were explicitly set.
func applyFlagOverrides(cfg *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "grpc-listen":
			cfg.GRPCListenAddr = f.Value.String()
		case "http-listen":
			cfg.HTTPListenAddr = f.Value.String()
		case "receiver-tls-enabled":
			cfg.ReceiverTLSEnabled = f.Value.String() == "true"
		case "receiver-tls-cert":
			cfg.ReceiverTLSCertFile = f.Value.String()
		case "receiver-tls-key":
			cfg.ReceiverTLSKeyFile = f.Value.String()
		case "receiver-tls-ca":
			cfg.ReceiverTLSCAFile = f.Value.String()
		case "receiver-tls-client-auth":
			cfg.ReceiverTLSClientAuth = f.Value.String() == "true"
		case "receiver-auth-enabled":
			cfg.ReceiverAuthEnabled = f.Value.String() == "true"
		case "receiver-auth-bearer-token":
			cfg.ReceiverAuthBearerToken = f.Value.String()
		case "receiver-auth-basic-username":
			cfg.ReceiverAuthBasicUsername = f.Value.String()
		case "receiver-auth-basic-password":
			cfg.ReceiverAuthBasicPassword = f.Value.String()
		case "sink-endpoint":
			cfg.SinkEndpoint = f.Value.String()
		case "sink-protocol":
			cfg.SinkProtocol = f.Value.String()
		case "sink-insecure":
			cfg.SinkInsecure = f.Value.String() == "true"
		case "sink-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.SinkTimeout = d
			}
		case "sink-default-path":
			cfg.SinkDefaultPath = f.Value.String()
		case "sink-tls-enabled":
			cfg.SinkTLSEnabled = f.Value.String() == "true"
		case "sink-tls-cert":
			cfg.SinkTLSCertFile = f.Value.String()
		case "sink-tls-key":
			cfg.SinkTLSKeyFile = f.Value.String()
		case "sink-tls-ca":
			cfg.SinkTLSCAFile = f.Value.String()
		case "sink-tls-skip-verify":
			cfg.SinkTLSInsecureSkipVerify = f.Value.String() == "true"
		case "sink-tls-server-name":
			cfg.SinkTLSServerName = f.Value.String()
		case "sink-auth-bearer-token":
			cfg.SinkAuthBearerToken = f.Value.String()
		case "sink-auth-basic-username":
			cfg.SinkAuthBasicUsername = f.Value.String()
		case "sink-auth-basic-password":
			cfg.SinkAuthBasicPassword = f.Value.String()
		case "sink-auth-headers":
			cfg.SinkAuthHeaders = f.Value.String()
		case "sink-compression":
			cfg.SinkCompression = f.Value.String()
		case "sink-compression-level":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.SinkCompressionLevel = i
				}
			}
		case "sink-max-idle-conns":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.SinkMaxIdleConns = i
				}
			}
		case "sink-max-idle-conns-per-host":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.SinkMaxIdleConnsPerHost = i
				}
			}
		case "sink-max-conns-per-host":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.SinkMaxConnsPerHost = i
				}
			}
		case "sink-idle-conn-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.SinkIdleConnTimeout = d
			}
		case "sink-disable-keep-alives":
			cfg.SinkDisableKeepAlives = f.Value.String() == "true"
		case "sink-force-http2":
			cfg.SinkForceHTTP2 = f.Value.String() == "true"
		case "queue-size":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.QueueSize = i
				}
			}
		case "max-batch-size":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.MaxExportBatchSize = i
				}
			}
		case "schedule-delay":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ScheduleDelay = d
			}
		case "export-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ExportTimeout = d
			}
		case "stats-addr":
			cfg.StatsAddr = f.Value.String()
		case "stats-log-interval":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.StatsLogInterval = d
			}
		case "telemetry-endpoint":
			cfg.TelemetryEndpoint = f.Value.String()
		case "telemetry-protocol":
			cfg.TelemetryProtocol = f.Value.String()
		case "telemetry-insecure":
			cfg.TelemetryInsecure = f.Value.String() == "true"
		case "telemetry-push-interval":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.TelemetryPushInterval = d
			}
		case "memory-limit-ratio":
			if v, ok := f.Value.(flag.Getter); ok {
				if fv, ok := v.Get().(float64); ok {
					cfg.MemoryLimitRatio = fv
				}
			}
		case "shutdown-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ShutdownTimeout = d
			}
		case "help", "h":
			cfg.ShowHelp = f.Value.String() == "true"
		case "version", "v":
			cfg.ShowVersion = f.Value.String() == "true"
		}
	})
}

// ReceiverTLSConfig returns the TLS configuration for receivers.
func (c *Config) ReceiverTLSConfig() tlspkg.ServerConfig {
	return tlspkg.ServerConfig{
		Enabled:    c.ReceiverTLSEnabled,
		CertFile:   c.ReceiverTLSCertFile,
		KeyFile:    c.ReceiverTLSKeyFile,
		CAFile:     c.ReceiverTLSCAFile,
		ClientAuth: c.ReceiverTLSClientAuth,
	}
}

// ReceiverAuthConfig returns the auth configuration for receivers.
func (c *Config) ReceiverAuthConfig() auth.ServerConfig {
	return auth.ServerConfig{
		Enabled:           c.ReceiverAuthEnabled,
		BearerToken:       c.ReceiverAuthBearerToken,
		BasicAuthUsername: c.ReceiverAuthBasicUsername,
		BasicAuthPassword: c.ReceiverAuthBasicPassword,
	}
}

// GRPCReceiverConfig returns the full gRPC receiver configuration.
func (c *Config) GRPCReceiverConfig() receiver.GRPCConfig {
	return receiver.GRPCConfig{
		Addr: c.GRPCListenAddr,
		TLS:  c.ReceiverTLSConfig(),
		Auth: c.ReceiverAuthConfig(),
	}
}

// HTTPReceiverConfig returns the full HTTP receiver configuration.
func (c *Config) HTTPReceiverConfig() receiver.HTTPConfig {
	return receiver.HTTPConfig{
		Addr: c.HTTPListenAddr,
		TLS:  c.ReceiverTLSConfig(),
		Auth: c.ReceiverAuthConfig(),
	}
}

// SinkTLSConfig returns the TLS configuration for the sink.
func (c *Config) SinkTLSConfig() tlspkg.ClientConfig {
	return tlspkg.ClientConfig{
		Enabled:            c.SinkTLSEnabled,
		CertFile:           c.SinkTLSCertFile,
		KeyFile:            c.SinkTLSKeyFile,
		CAFile:             c.SinkTLSCAFile,
		InsecureSkipVerify: c.SinkTLSInsecureSkipVerify,
		ServerName:         c.SinkTLSServerName,
	}
}

// SinkAuthConfig returns the auth configuration for the sink.
func (c *Config) SinkAuthConfig() auth.ClientConfig {
	headers := make(map[string]string)
	if c.SinkAuthHeaders != "" {
		for _, pair := range strings.Split(c.SinkAuthHeaders, ",") {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) == 2 {
				headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
		}
	}
	return auth.ClientConfig{
		BearerToken:       c.SinkAuthBearerToken,
		BasicAuthUsername: c.SinkAuthBasicUsername,
		BasicAuthPassword: c.SinkAuthBasicPassword,
		Headers:           headers,
	}
}

// SinkCompressionConfig returns the compression configuration for the sink.
func (c *Config) SinkCompressionConfig() compression.Config {
	t, _ := compression.ParseType(c.SinkCompression)
	return compression.Config{
		Type:  t,
		Level: compression.Level(c.SinkCompressionLevel),
	}
}

// SinkHTTPClientConfig returns the HTTP client configuration for the sink.
func (c *Config) SinkHTTPClientConfig() sink.HTTPClientConfig {
	return sink.HTTPClientConfig{
		MaxIdleConns:        c.SinkMaxIdleConns,
		MaxIdleConnsPerHost: c.SinkMaxIdleConnsPerHost,
		MaxConnsPerHost:     c.SinkMaxConnsPerHost,
		IdleConnTimeout:     c.SinkIdleConnTimeout,
		DisableKeepAlives:   c.SinkDisableKeepAlives,
		ForceAttemptHTTP2:   c.SinkForceHTTP2,
	}
}

// SinkConfig returns the full sink configuration.
func (c *Config) SinkConfig() sink.Config {
	return sink.Config{
		Endpoint:    c.SinkEndpoint,
		Protocol:    sink.Protocol(c.SinkProtocol),
		Insecure:    c.SinkInsecure,
		Timeout:     c.SinkTimeout,
		DefaultPath: c.SinkDefaultPath,
		TLS:         c.SinkTLSConfig(),
		Auth:        c.SinkAuthConfig(),
		Compression: c.SinkCompressionConfig(),
		HTTPClient:  c.SinkHTTPClientConfig(),
	}
}

// ProcessorConfig returns the batch processor configuration.
func (c *Config) ProcessorConfig() processor.Config {
	return processor.Config{
		MaxQueueSize:       c.QueueSize,
		MaxExportBatchSize: c.MaxExportBatchSize,
		ScheduleDelay:      c.ScheduleDelay,
		ExportTimeout:      c.ExportTimeout,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue-size must be positive, got %d", c.QueueSize)
	}
	if c.MaxExportBatchSize <= 0 {
		return fmt.Errorf("max-batch-size must be positive, got %d", c.MaxExportBatchSize)
	}
	if c.MaxExportBatchSize > c.QueueSize {
		return fmt.Errorf("max-batch-size (%d) must not exceed queue-size (%d)", c.MaxExportBatchSize, c.QueueSize)
	}
	if c.ScheduleDelay <= 0 {
		return fmt.Errorf("schedule-delay must be positive, got %s", c.ScheduleDelay)
	}
	if c.ExportTimeout < 0 {
		return fmt.Errorf("export-timeout must not be negative, got %s", c.ExportTimeout)
	}
	if c.SinkProtocol != "grpc" && c.SinkProtocol != "http" {
		return fmt.Errorf("sink-protocol must be grpc or http, got %q", c.SinkProtocol)
	}
	if c.SinkEndpoint == "" {
		return fmt.Errorf("sink-endpoint must not be empty")
	}
	if _, err := compression.ParseType(c.SinkCompression); err != nil {
		return fmt.Errorf("invalid sink-compression: %w", err)
	}
	if c.ReceiverTLSEnabled && (c.ReceiverTLSCertFile == "" || c.ReceiverTLSKeyFile == "") {
		return fmt.Errorf("receiver-tls-cert and receiver-tls-key are required when receiver TLS is enabled")
	}
	if c.MemoryLimitRatio <= 0 || c.MemoryLimitRatio > 1 {
		return fmt.Errorf("memory-limit-ratio must be in (0, 1], got %g", c.MemoryLimitRatio)
	}
	if c.TelemetryEndpoint != "" && c.TelemetryProtocol != "grpc" && c.TelemetryProtocol != "http" {
		return fmt.Errorf("telemetry-protocol must be grpc or http, got %q", c.TelemetryProtocol)
	}
	return nil
}

// PrintUsage prints the usage message.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `spans-governor - OTLP trace proxy with batching

USAGE:
    spans-governor [OPTIONS]

DESCRIPTION:
    Receives OTLP spans via gRPC and HTTP, batches them through a bounded
    queue, and forwards to a configurable OTLP endpoint.

OPTIONS:
    Configuration:
        -config <path>                   Path to YAML configuration file
                                         CLI flags override config file values

    Receiver:
        -grpc-listen <addr>              gRPC receiver listen address (default: ":4317")
        -http-listen <addr>              HTTP receiver listen address (default: ":4318")

    Receiver TLS:
        -receiver-tls-enabled            Enable TLS for receivers (default: false)
        -receiver-tls-cert <path>        Path to server certificate file
        -receiver-tls-key <path>         Path to server private key file
        -receiver-tls-ca <path>          Path to CA certificate for client verification (mTLS)
        -receiver-tls-client-auth        Require client certificates (mTLS) (default: false)

    Receiver Authentication:
        -receiver-auth-enabled           Enable authentication for receivers (default: false)
        -receiver-auth-bearer-token      Expected bearer token for authentication
        -receiver-auth-basic-username    Basic auth username
        -receiver-auth-basic-password    Basic auth password

    Sink:
        -sink-endpoint <addr>            OTLP sink endpoint (default: "localhost:4317")
        -sink-protocol <proto>           Sink protocol: grpc or http (default: "grpc")
        -sink-insecure                   Use insecure connection (default: true)
        -sink-timeout <dur>              Sink request timeout (default: 30s)
        -sink-default-path <path>        Default HTTP path when endpoint has no path (default: "/v1/traces")

    Sink TLS:
        -sink-tls-enabled                Enable custom TLS config for sink (default: false)
        -sink-tls-cert <path>            Path to client certificate file (mTLS)
        -sink-tls-key <path>             Path to client private key file (mTLS)
        -sink-tls-ca <path>              Path to CA certificate for server verification
        -sink-tls-skip-verify            Skip TLS certificate verification (default: false)
        -sink-tls-server-name            Override server name for TLS verification

    Sink Authentication:
        -sink-auth-bearer-token          Bearer token to send with requests
        -sink-auth-basic-username        Basic auth username
        -sink-auth-basic-password        Basic auth password
        -sink-auth-headers               Custom headers (format: key1=value1,key2=value2)

    Sink Compression:
        -sink-compression <type>         Compression type: none, gzip, zstd, snappy, lz4 (default: none)
        -sink-compression-level <n>      Compression level, algorithm-specific (default: 0)

    Processor:
        -queue-size <n>                  Maximum queued resource-spans records (default: 2048)
        -max-batch-size <n>              Maximum records per export batch (default: 512)
        -schedule-delay <dur>            Delay between scheduled exports (default: 5s)
        -export-timeout <dur>            Per-batch export timeout (default: 30s)

    Stats:
        -stats-addr <addr>               Stats and metrics HTTP listen address (default: ":9090")
        -stats-log-interval <dur>        Periodic stats logging interval (default: 1m, 0 = disabled)

    Telemetry:
        -telemetry-endpoint <addr>       OTLP endpoint for self-monitoring (default: disabled)
        -telemetry-protocol <proto>      Telemetry protocol: grpc or http (default: "grpc")
        -telemetry-insecure              Use insecure connection for telemetry (default: true)
        -telemetry-push-interval <dur>   Metric push interval (default: 30s)

    Other:
        -memory-limit-ratio <ratio>      Ratio of container memory for GOMEMLIMIT (default: 0.9)
        -shutdown-timeout <dur>          Graceful shutdown timeout (default: 30s)
        -version, -v                     Show version
        -help, -h                        Show this help

`)
}

// PrintVersion prints the version.
func PrintVersion() {
	fmt.Printf("spans-governor version %s\n", version)
}

// Version returns the build version.
func Version() string {
	return version
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GRPCListenAddr:          ":4317",
		HTTPListenAddr:          ":4318",
		SinkEndpoint:            "localhost:4317",
		SinkProtocol:            "grpc",
		SinkInsecure:            true,
		SinkTimeout:             30 * time.Second,
		SinkDefaultPath:         "/v1/traces",
		SinkCompression:         "none",
		SinkCompressionLevel:    0,
		SinkMaxIdleConns:        100,
		SinkMaxIdleConnsPerHost: 100,
		SinkMaxConnsPerHost:     0,
		SinkIdleConnTimeout:     90 * time.Second,
		SinkDisableKeepAlives:   false,
		SinkForceHTTP2:          false,
		QueueSize:               processor.DefaultMaxQueueSize,
		MaxExportBatchSize:      processor.DefaultMaxExportBatchSize,
		ScheduleDelay:           processor.DefaultScheduleDelay,
		ExportTimeout:           processor.DefaultExportTimeout,
		StatsAddr:               ":9090",
		StatsLogInterval:        time.Minute,
		TelemetryProtocol:       "grpc",
		TelemetryInsecure:       true,
		TelemetryPushInterval:   30 * time.Second,
		MemoryLimitRatio:        0.9,
		ShutdownTimeout:         30 * time.Second,
	}
}
