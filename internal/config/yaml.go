package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the YAML configuration file structure.
type YAMLConfig struct {
	Receiver  ReceiverYAMLConfig  `yaml:"receiver"`
	Sink      SinkYAMLConfig      `yaml:"sink"`
	Processor ProcessorYAMLConfig `yaml:"processor"`
	Stats     StatsYAMLConfig     `yaml:"stats"`
	Telemetry TelemetryYAMLConfig `yaml:"telemetry"`
	Memory    MemoryYAMLConfig    `yaml:"memory"`
	Shutdown  ShutdownYAMLConfig  `yaml:"shutdown"`
}

// ReceiverYAMLConfig holds receiver configuration.
type ReceiverYAMLConfig struct {
	GRPC GRPCReceiverYAMLConfig `yaml:"grpc"`
	HTTP HTTPReceiverYAMLConfig `yaml:"http"`
	TLS  TLSServerYAMLConfig    `yaml:"tls"`
	Auth AuthServerYAMLConfig   `yaml:"auth"`
}

// GRPCReceiverYAMLConfig holds gRPC receiver settings.
type GRPCReceiverYAMLConfig struct {
	Address string `yaml:"address"`
}

// HTTPReceiverYAMLConfig holds HTTP receiver settings.
type HTTPReceiverYAMLConfig struct {
	Address string `yaml:"address"`
}

// TLSServerYAMLConfig holds TLS server configuration.
type TLSServerYAMLConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	CAFile     string `yaml:"ca_file"`
	ClientAuth bool   `yaml:"client_auth"`
}

// AuthServerYAMLConfig holds server authentication configuration.
type AuthServerYAMLConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BearerToken   string `yaml:"bearer_token"`
	BasicUsername string `yaml:"basic_username"`
	BasicPassword string `yaml:"basic_password"`
}

// SinkYAMLConfig holds sink configuration.
type SinkYAMLConfig struct {
	Endpoint    string                `yaml:"endpoint"`
	Protocol    string                `yaml:"protocol"`
	Insecure    *bool                 `yaml:"insecure"`
	Timeout     Duration              `yaml:"timeout"`
	DefaultPath string                `yaml:"default_path"`
	TLS         TLSClientYAMLConfig   `yaml:"tls"`
	Auth        AuthClientYAMLConfig  `yaml:"auth"`
	Compression CompressionYAMLConfig `yaml:"compression"`
	HTTPClient  HTTPClientYAMLConfig  `yaml:"http_client"`
}

// TLSClientYAMLConfig holds TLS client configuration.
type TLSClientYAMLConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	CAFile             string `yaml:"ca_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	ServerName         string `yaml:"server_name"`
}

// AuthClientYAMLConfig holds client authentication configuration.
type AuthClientYAMLConfig struct {
	BearerToken   string            `yaml:"bearer_token"`
	BasicUsername string            `yaml:"basic_username"`
	BasicPassword string            `yaml:"basic_password"`
	Headers       map[string]string `yaml:"headers"`
}

// CompressionYAMLConfig holds compression configuration.
type CompressionYAMLConfig struct {
	Type  string `yaml:"type"`
	Level int    `yaml:"level"`
}

// HTTPClientYAMLConfig holds HTTP client connection pool configuration.
type HTTPClientYAMLConfig struct {
	MaxIdleConns        int      `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int      `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int      `yaml:"max_conns_per_host"`
	IdleConnTimeout     Duration `yaml:"idle_conn_timeout"`
	DisableKeepAlives   bool     `yaml:"disable_keep_alives"`
	ForceHTTP2          bool     `yaml:"force_http2"`
}

// ProcessorYAMLConfig holds batch processor configuration.
type ProcessorYAMLConfig struct {
	QueueSize          int      `yaml:"queue_size"`
	MaxExportBatchSize int      `yaml:"max_export_batch_size"`
	ScheduleDelay      Duration `yaml:"schedule_delay"`
	ExportTimeout      Duration `yaml:"export_timeout"`
}

// StatsYAMLConfig holds stats configuration.
type StatsYAMLConfig struct {
	Address     string   `yaml:"address"`
	LogInterval Duration `yaml:"log_interval"`
}

// TelemetryYAMLConfig holds OTLP self-monitoring telemetry configuration.
type TelemetryYAMLConfig struct {
	Endpoint     string   `yaml:"endpoint"`      // OTLP endpoint (empty = disabled)
	Protocol     string   `yaml:"protocol"`      // "grpc" or "http" (default: "grpc")
	Insecure     *bool    `yaml:"insecure"`      // Use insecure connection (default: true)
	PushInterval Duration `yaml:"push_interval"` // Metric push interval (default: 30s)
}

// MemoryYAMLConfig holds memory limit configuration.
type MemoryYAMLConfig struct {
	// LimitRatio is the ratio of container memory to use for GOMEMLIMIT (0.0-1.0)
	LimitRatio float64 `yaml:"limit_ratio"`
}

// ShutdownYAMLConfig holds shutdown configuration.
type ShutdownYAMLConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// Duration is a wrapper for time.Duration that supports YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML configuration from bytes.
func ParseYAML(data []byte) (*YAMLConfig, error) {
	cfg := &YAMLConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToConfig converts the YAML configuration to a Config, filling unspecified
// fields with defaults.
func (y *YAMLConfig) ToConfig() *Config {
	cfg := DefaultConfig()

	if y.Receiver.GRPC.Address != "" {
		cfg.GRPCListenAddr = y.Receiver.GRPC.Address
	}
	if y.Receiver.HTTP.Address != "" {
		cfg.HTTPListenAddr = y.Receiver.HTTP.Address
	}

	cfg.ReceiverTLSEnabled = y.Receiver.TLS.Enabled
	cfg.ReceiverTLSCertFile = y.Receiver.TLS.CertFile
	cfg.ReceiverTLSKeyFile = y.Receiver.TLS.KeyFile
	cfg.ReceiverTLSCAFile = y.Receiver.TLS.CAFile
	cfg.ReceiverTLSClientAuth = y.Receiver.TLS.ClientAuth

	cfg.ReceiverAuthEnabled = y.Receiver.Auth.Enabled
	cfg.ReceiverAuthBearerToken = y.Receiver.Auth.BearerToken
	cfg.ReceiverAuthBasicUsername = y.Receiver.Auth.BasicUsername
	cfg.ReceiverAuthBasicPassword = y.Receiver.Auth.BasicPassword

	if y.Sink.Endpoint != "" {
		cfg.SinkEndpoint = y.Sink.Endpoint
	}
	if y.Sink.Protocol != "" {
		cfg.SinkProtocol = y.Sink.Protocol
	}
	if y.Sink.Insecure != nil {
		cfg.SinkInsecure = *y.Sink.Insecure
	}
	if y.Sink.Timeout != 0 {
		cfg.SinkTimeout = time.Duration(y.Sink.Timeout)
	}
	if y.Sink.DefaultPath != "" {
		cfg.SinkDefaultPath = y.Sink.DefaultPath
	}

	cfg.SinkTLSEnabled = y.Sink.TLS.Enabled
	cfg.SinkTLSCertFile = y.Sink.TLS.CertFile
	cfg.SinkTLSKeyFile = y.Sink.TLS.KeyFile
	cfg.SinkTLSCAFile = y.Sink.TLS.CAFile
	cfg.SinkTLSInsecureSkipVerify = y.Sink.TLS.InsecureSkipVerify
	cfg.SinkTLSServerName = y.Sink.TLS.ServerName

	cfg.SinkAuthBearerToken = y.Sink.Auth.BearerToken
	cfg.SinkAuthBasicUsername = y.Sink.Auth.BasicUsername
	cfg.SinkAuthBasicPassword = y.Sink.Auth.BasicPassword
	cfg.SinkAuthHeaders = headersMapToString(y.Sink.Auth.Headers)

	if y.Sink.Compression.Type != "" {
		cfg.SinkCompression = y.Sink.Compression.Type
	}
	cfg.SinkCompressionLevel = y.Sink.Compression.Level

	if y.Sink.HTTPClient.MaxIdleConns != 0 {
		cfg.SinkMaxIdleConns = y.Sink.HTTPClient.MaxIdleConns
	}
	if y.Sink.HTTPClient.MaxIdleConnsPerHost != 0 {
		cfg.SinkMaxIdleConnsPerHost = y.Sink.HTTPClient.MaxIdleConnsPerHost
	}
	if y.Sink.HTTPClient.MaxConnsPerHost != 0 {
		cfg.SinkMaxConnsPerHost = y.Sink.HTTPClient.MaxConnsPerHost
	}
	if y.Sink.HTTPClient.IdleConnTimeout != 0 {
		cfg.SinkIdleConnTimeout = time.Duration(y.Sink.HTTPClient.IdleConnTimeout)
	}
	cfg.SinkDisableKeepAlives = y.Sink.HTTPClient.DisableKeepAlives
	cfg.SinkForceHTTP2 = y.Sink.HTTPClient.ForceHTTP2

	if y.Processor.QueueSize != 0 {
		cfg.QueueSize = y.Processor.QueueSize
	}
	if y.Processor.MaxExportBatchSize != 0 {
		cfg.MaxExportBatchSize = y.Processor.MaxExportBatchSize
	}
	if y.Processor.ScheduleDelay != 0 {
		cfg.ScheduleDelay = time.Duration(y.Processor.ScheduleDelay)
	}
	if y.Processor.ExportTimeout != 0 {
		cfg.ExportTimeout = time.Duration(y.Processor.ExportTimeout)
	}

	if y.Stats.Address != "" {
		cfg.StatsAddr = y.Stats.Address
	}
	if y.Stats.LogInterval != 0 {
		cfg.StatsLogInterval = time.Duration(y.Stats.LogInterval)
	}

	cfg.TelemetryEndpoint = y.Telemetry.Endpoint
	if y.Telemetry.Protocol != "" {
		cfg.TelemetryProtocol = y.Telemetry.Protocol
	}
	if y.Telemetry.Insecure != nil {
		cfg.TelemetryInsecure = *y.Telemetry.Insecure
	}
	if y.Telemetry.PushInterval != 0 {
		cfg.TelemetryPushInterval = time.Duration(y.Telemetry.PushInterval)
	}

	if y.Memory.LimitRatio != 0 {
		cfg.MemoryLimitRatio = y.Memory.LimitRatio
	}

	if y.Shutdown.Timeout != 0 {
		cfg.ShutdownTimeout = time.Duration(y.Shutdown.Timeout)
	}

	return cfg
}

func headersMapToString(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(headers))
	for k, v := range headers {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}
