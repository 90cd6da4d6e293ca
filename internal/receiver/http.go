package receiver

import (
	"context"
	"io"
	"net/http"

	"github.com/szibis/spans-governor/internal/auth"
	"github.com/szibis/spans-governor/internal/compression"
	"github.com/szibis/spans-governor/internal/logging"
	tlspkg "github.com/szibis/spans-governor/internal/tls"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"
)

// HTTPConfig holds the HTTP receiver configuration.
type HTTPConfig struct {
	// Addr is the listen address.
	Addr string
	// TLS configuration for secure connections.
	TLS tlspkg.ServerConfig
	// Auth configuration for authentication.
	Auth auth.ServerConfig
}

// HTTPReceiver receives spans via OTLP HTTP on /v1/traces.
type HTTPReceiver struct {
	server *http.Server
	ingest *ingest
	addr   string
	tls    tlspkg.ServerConfig
}

// NewHTTP creates an HTTP receiver with default configuration.
func NewHTTP(addr string, enq Enqueuer, stats StatsProcessor) *HTTPReceiver {
	return NewHTTPWithConfig(HTTPConfig{Addr: addr}, enq, stats)
}

// NewHTTPWithConfig creates an HTTP receiver with the given configuration.
func NewHTTPWithConfig(cfg HTTPConfig, enq Enqueuer, stats StatsProcessor) *HTTPReceiver {
	r := &HTTPReceiver{
		ingest: newIngest(enq, stats),
		addr:   cfg.Addr,
		tls:    cfg.TLS,
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/traces", auth.HTTPMiddleware(cfg.Auth, http.HandlerFunc(r.handleTraces)))

	r.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	return r
}

func (r *HTTPReceiver) handleTraces(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		rejectedRequestsTotal.WithLabelValues("http", "method").Inc()
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		rejectedRequestsTotal.WithLabelValues("http", "body").Inc()
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer req.Body.Close()

	if enc := req.Header.Get("Content-Encoding"); enc != "" {
		t := compression.ParseContentEncoding(enc)
		if t == compression.TypeNone {
			rejectedRequestsTotal.WithLabelValues("http", "encoding").Inc()
			http.Error(w, "unsupported content encoding", http.StatusUnsupportedMediaType)
			return
		}
		body, err = compression.Decompress(body, t)
		if err != nil {
			rejectedRequestsTotal.WithLabelValues("http", "decompress").Inc()
			http.Error(w, "failed to decompress body", http.StatusBadRequest)
			return
		}
	}

	if ct := req.Header.Get("Content-Type"); ct != "application/x-protobuf" {
		rejectedRequestsTotal.WithLabelValues("http", "content_type").Inc()
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	var exportReq coltracepb.ExportTraceServiceRequest
	if err := proto.Unmarshal(body, &exportReq); err != nil {
		rejectedRequestsTotal.WithLabelValues("http", "unmarshal").Inc()
		http.Error(w, "failed to unmarshal protobuf", http.StatusBadRequest)
		return
	}

	r.ingest.accept("http", exportReq.ResourceSpans)

	resp, err := proto.Marshal(&coltracepb.ExportTraceServiceResponse{})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

// Start starts the HTTP server.
func (r *HTTPReceiver) Start() error {
	logging.Info("HTTP receiver started", logging.F("addr", r.addr))
	if r.tls.Enabled {
		return r.server.ListenAndServeTLS(r.tls.CertFile, r.tls.KeyFile)
	}
	return r.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (r *HTTPReceiver) Stop(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}
