// Package sink delivers span batches to a downstream OTLP trace backend.
package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/szibis/spans-governor/internal/auth"
	"github.com/szibis/spans-governor/internal/compression"
	tlspkg "github.com/szibis/spans-governor/internal/tls"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// ErrorType represents a category of export error for metrics.
type ErrorType string

const (
	// ErrorTypeNetwork represents network-level errors (DNS, connection refused, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeServerError represents server-side errors (5xx status codes)
	ErrorTypeServerError ErrorType = "server_error"
	// ErrorTypeClientError represents client-side errors (4xx status codes)
	ErrorTypeClientError ErrorType = "client_error"
	// ErrorTypeAuth represents authentication/authorization errors (401, 403)
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeRateLimit represents rate limiting errors (429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeUnknown represents unclassified errors
	ErrorTypeUnknown ErrorType = "unknown"
)

// Protocol represents the export protocol.
type Protocol string

const (
	// ProtocolGRPC uses OTLP gRPC.
	ProtocolGRPC Protocol = "grpc"
	// ProtocolHTTP uses OTLP HTTP.
	ProtocolHTTP Protocol = "http"
)

// Sink is the downstream consumer of span batches. Export must not panic on
// ordinary failures; it reports them via the returned error. Implementations
// own any retry policy; the batching engine never re-sends a batch.
type Sink interface {
	Export(ctx context.Context, spans []*tracepb.ResourceSpans) error
	Shutdown(ctx context.Context) error
}

// HTTPClientConfig holds HTTP client connection pool settings.
type HTTPClientConfig struct {
	// MaxIdleConns limits idle keep-alive connections across all hosts.
	MaxIdleConns int
	// MaxIdleConnsPerHost limits idle keep-alive connections per host.
	MaxIdleConnsPerHost int
	// MaxConnsPerHost limits total connections per host. Zero means no limit.
	MaxConnsPerHost int
	// IdleConnTimeout closes idle connections after this duration.
	IdleConnTimeout time.Duration
	// DisableKeepAlives forces a fresh connection per request.
	DisableKeepAlives bool
	// ForceAttemptHTTP2 enables HTTP/2 negotiation.
	ForceAttemptHTTP2 bool
	// HTTP2ReadIdleTimeout triggers a ping health check on idle HTTP/2 connections.
	HTTP2ReadIdleTimeout time.Duration
	// HTTP2PingTimeout closes the connection if a ping goes unanswered.
	HTTP2PingTimeout time.Duration
}

// Config holds the sink configuration.
type Config struct {
	// Endpoint is the target endpoint (host:port for gRPC, URL for HTTP).
	Endpoint string
	// Protocol is the export protocol (grpc or http).
	Protocol Protocol
	// Insecure uses a plaintext connection (no TLS).
	Insecure bool
	// Timeout is the per-request timeout applied when the caller's context
	// carries no earlier deadline.
	Timeout time.Duration
	// TLS configuration for secure connections.
	TLS tlspkg.ClientConfig
	// Auth configuration for authentication.
	Auth auth.ClientConfig
	// Compression configuration for the HTTP protocol.
	Compression compression.Config
	// HTTPClient configuration for HTTP connection pooling.
	HTTPClient HTTPClientConfig
	// DefaultPath is appended to HTTP endpoints that carry no path.
	// Empty selects the standard OTLP trace path.
	DefaultPath string
}

// OTLPSink exports spans via OTLP gRPC or HTTP.
type OTLPSink struct {
	protocol    Protocol
	timeout     time.Duration
	compression compression.Config

	grpcConn   *grpc.ClientConn
	grpcClient coltracepb.TraceServiceClient

	httpClient   *http.Client
	httpEndpoint string
}

// New creates an OTLPSink from the configuration.
func New(ctx context.Context, cfg Config) (*OTLPSink, error) {
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolGRPC
	}

	switch cfg.Protocol {
	case ProtocolGRPC:
		return newGRPCSink(ctx, cfg)
	case ProtocolHTTP:
		return newHTTPSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", cfg.Protocol)
	}
}

func newGRPCSink(_ context.Context, cfg Config) (*OTLPSink, error) {
	var opts []grpc.DialOption

	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else if cfg.TLS.Enabled {
		tlsConfig, err := tlspkg.NewClientTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})))
	}

	if cfg.Auth.BearerToken != "" || cfg.Auth.BasicAuthUsername != "" || len(cfg.Auth.Headers) > 0 {
		opts = append(opts, grpc.WithUnaryInterceptor(auth.GRPCClientInterceptor(cfg.Auth)))
	}

	conn, err := grpc.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}

	return &OTLPSink{
		protocol:   ProtocolGRPC,
		timeout:    cfg.Timeout,
		grpcConn:   conn,
		grpcClient: coltracepb.NewTraceServiceClient(conn),
	}, nil
}

func newHTTPSink(_ context.Context, cfg Config) (*OTLPSink, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     cfg.HTTPClient.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.HTTPClient.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.HTTPClient.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.HTTPClient.MaxConnsPerHost,
		IdleConnTimeout:       cfg.HTTPClient.IdleConnTimeout,
		DisableKeepAlives:     cfg.HTTPClient.DisableKeepAlives,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if transport.MaxIdleConns == 0 {
		transport.MaxIdleConns = 100
	}
	if transport.MaxIdleConnsPerHost == 0 {
		transport.MaxIdleConnsPerHost = 100
	}
	if transport.IdleConnTimeout == 0 {
		transport.IdleConnTimeout = 90 * time.Second
	}

	if !cfg.Insecure {
		if cfg.TLS.Enabled {
			tlsConfig, err := tlspkg.NewClientTLSConfig(cfg.TLS)
			if err != nil {
				return nil, fmt.Errorf("failed to create TLS config: %w", err)
			}
			transport.TLSClientConfig = tlsConfig
		} else {
			transport.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}
	}

	var roundTripper http.RoundTripper = transport

	if cfg.HTTPClient.ForceAttemptHTTP2 || (!cfg.Insecure && transport.TLSClientConfig != nil) {
		http2Transport, err := http2.ConfigureTransports(transport)
		if err == nil && http2Transport != nil {
			if cfg.HTTPClient.HTTP2ReadIdleTimeout > 0 {
				http2Transport.ReadIdleTimeout = cfg.HTTPClient.HTTP2ReadIdleTimeout
			}
			if cfg.HTTPClient.HTTP2PingTimeout > 0 {
				http2Transport.PingTimeout = cfg.HTTPClient.HTTP2PingTimeout
			}
		}
	}

	if cfg.Auth.BearerToken != "" || cfg.Auth.BasicAuthUsername != "" || len(cfg.Auth.Headers) > 0 {
		roundTripper = auth.HTTPTransport(cfg.Auth, roundTripper)
	}

	client := &http.Client{
		Transport: roundTripper,
		Timeout:   cfg.Timeout,
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	scheme := "http"
	if !cfg.Insecure {
		scheme = "https"
	}
	if !hasScheme(endpoint) {
		endpoint = fmt.Sprintf("%s://%s", scheme, endpoint)
	}
	if !hasPath(endpoint) {
		path := cfg.DefaultPath
		if path == "" {
			path = "/v1/traces"
		}
		endpoint += path
	}

	return &OTLPSink{
		protocol:     ProtocolHTTP,
		timeout:      cfg.Timeout,
		compression:  cfg.Compression,
		httpClient:   client,
		httpEndpoint: endpoint,
	}, nil
}

// Export sends a span batch to the configured endpoint.
func (s *OTLPSink) Export(ctx context.Context, spans []*tracepb.ResourceSpans) error {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := &coltracepb.ExportTraceServiceRequest{ResourceSpans: spans}

	switch s.protocol {
	case ProtocolGRPC:
		return s.exportGRPC(ctx, req)
	case ProtocolHTTP:
		return s.exportHTTP(ctx, req)
	default:
		return fmt.Errorf("unsupported protocol: %s", s.protocol)
	}
}

func (s *OTLPSink) exportGRPC(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) error {
	size := proto.Size(req)
	spans := countSpans(req.ResourceSpans)

	exportRequestsTotal.Inc()

	_, err := s.grpcClient.Export(ctx, req)
	if err != nil {
		errType := classifyGRPCError(err)
		recordExportError(errType)
		return &ExportError{Err: err, Type: errType}
	}

	exportBytesTotal.WithLabelValues("grpc").Add(float64(size))
	recordExportSuccess(spans)

	return nil
}

func (s *OTLPSink) exportHTTP(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) error {
	body, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	uncompressedSize := len(body)
	spans := countSpans(req.ResourceSpans)
	compressionLabel := "none"

	if s.compression.Type != compression.TypeNone && s.compression.Type != "" {
		body, err = compression.Compress(body, s.compression)
		if err != nil {
			return fmt.Errorf("failed to compress request: %w", err)
		}
		compressionLabel = string(s.compression.Type)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.httpEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	if encoding := s.compression.Type.ContentEncoding(); encoding != "" {
		httpReq.Header.Set("Content-Encoding", encoding)
	}

	exportRequestsTotal.Inc()

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		errType := classifyError(err)
		recordExportError(errType)
		return &ExportError{Err: fmt.Errorf("failed to send request: %w", err), Type: errType}
	}
	defer resp.Body.Close()

	// Read the body to allow connection reuse; keep a bounded prefix for
	// error context.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		errType := classifyHTTPStatusCode(resp.StatusCode)
		recordExportError(errType)
		return &ExportError{
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			Type:       errType,
			StatusCode: resp.StatusCode,
			Message:    string(detail),
		}
	}

	exportBytesTotal.WithLabelValues(compressionLabel).Add(float64(len(body)))
	if compressionLabel != "none" {
		exportBytesTotal.WithLabelValues("uncompressed").Add(float64(uncompressedSize))
	}
	recordExportSuccess(spans)

	return nil
}

// Shutdown closes the sink's connections.
func (s *OTLPSink) Shutdown(_ context.Context) error {
	switch s.protocol {
	case ProtocolGRPC:
		if s.grpcConn != nil {
			return s.grpcConn.Close()
		}
	case ProtocolHTTP:
		if s.httpClient != nil {
			s.httpClient.CloseIdleConnections()
		}
	}
	return nil
}

func hasScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func hasPath(url string) bool {
	rest := url
	if i := strings.Index(url, "://"); i >= 0 {
		rest = url[i+3:]
	}
	return strings.Contains(rest, "/")
}

func classifyGRPCError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return ErrorTypeTimeout
		case codes.Unavailable:
			return ErrorTypeNetwork
		case codes.Unauthenticated, codes.PermissionDenied:
			return ErrorTypeAuth
		case codes.ResourceExhausted:
			return ErrorTypeRateLimit
		case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
			return ErrorTypeClientError
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Aborted:
			return ErrorTypeServerError
		}
	}

	return classifyError(err)
}

func classifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if isTimeoutError(err) {
		return ErrorTypeTimeout
	}
	if isNetworkError(err) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "broken pipe"):
		return ErrorTypeNetwork
	case strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "deadline exceeded"):
		return ErrorTypeTimeout
	}

	return ErrorTypeUnknown
}

func classifyHTTPStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorTypeClientError
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// countSpans counts the spans contained in a slice of resource spans.
func countSpans(resourceSpans []*tracepb.ResourceSpans) int64 {
	var count int64
	for _, rs := range resourceSpans {
		for _, ss := range rs.GetScopeSpans() {
			count += int64(len(ss.GetSpans()))
		}
	}
	return count
}
