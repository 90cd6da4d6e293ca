// Package auth adds bearer/basic authentication to the receiver servers and
// the sink clients.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ServerConfig holds authentication configuration for the receiver side.
type ServerConfig struct {
	// Enabled enables authentication for the server.
	Enabled bool
	// BearerToken is the expected bearer token.
	BearerToken string
	// BasicAuthUsername is the expected basic auth username.
	BasicAuthUsername string
	// BasicAuthPassword is the expected basic auth password.
	BasicAuthPassword string
}

// ClientConfig holds authentication configuration for the sink side.
type ClientConfig struct {
	// BearerToken is the bearer token to send with requests.
	BearerToken string
	// BasicAuthUsername is the basic auth username.
	BasicAuthUsername string
	// BasicAuthPassword is the basic auth password.
	BasicAuthPassword string
	// Headers is a map of custom headers to send with requests.
	Headers map[string]string
}

// GRPCServerInterceptor returns a unary interceptor enforcing the server config.
func GRPCServerInterceptor(cfg ServerConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !cfg.Enabled {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		if err := validate(md, cfg); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(ctx, req)
	}
}

func validate(md metadata.MD, cfg ServerConfig) error {
	if cfg.BearerToken != "" {
		values := md.Get("authorization")
		if len(values) == 0 {
			return fmt.Errorf("missing authorization header")
		}
		token := strings.TrimPrefix(values[0], "Bearer ")
		if token == values[0] {
			return fmt.Errorf("invalid authorization header format")
		}
		if token != cfg.BearerToken {
			return fmt.Errorf("invalid bearer token")
		}
		return nil
	}

	if cfg.BasicAuthUsername != "" && cfg.BasicAuthPassword != "" {
		values := md.Get("authorization")
		if len(values) == 0 {
			return fmt.Errorf("missing authorization header")
		}
		expected := "Basic " + basicAuthEncoded(cfg.BasicAuthUsername, cfg.BasicAuthPassword)
		if values[0] != expected {
			return fmt.Errorf("invalid basic auth credentials")
		}
	}

	return nil
}

// HTTPMiddleware wraps next with authentication enforcement.
func HTTPMiddleware(cfg ServerConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		if cfg.BearerToken != "" {
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token != cfg.BearerToken {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if cfg.BasicAuthUsername != "" && cfg.BasicAuthPassword != "" {
			expected := "Basic " + basicAuthEncoded(cfg.BasicAuthUsername, cfg.BasicAuthPassword)
			if header != expected {
				http.Error(w, "invalid basic auth credentials", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// GRPCClientInterceptor returns a unary interceptor attaching client credentials.
func GRPCClientInterceptor(cfg ClientConfig) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		md := metadata.MD{}

		if cfg.BearerToken != "" {
			md.Set("authorization", "Bearer "+cfg.BearerToken)
		}
		if cfg.BasicAuthUsername != "" && cfg.BasicAuthPassword != "" {
			md.Set("authorization", "Basic "+basicAuthEncoded(cfg.BasicAuthUsername, cfg.BasicAuthPassword))
		}
		for k, v := range cfg.Headers {
			md.Set(k, v)
		}

		if len(md) > 0 {
			ctx = metadata.NewOutgoingContext(ctx, md)
		}

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// HTTPTransport returns an http.RoundTripper adding client credentials.
func HTTPTransport(cfg ClientConfig, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, cfg: cfg}
}

type authTransport struct {
	base http.RoundTripper
	cfg  ClientConfig
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone so the caller's request stays untouched.
	clone := req.Clone(req.Context())

	if t.cfg.BearerToken != "" {
		clone.Header.Set("Authorization", "Bearer "+t.cfg.BearerToken)
	}
	if t.cfg.BasicAuthUsername != "" && t.cfg.BasicAuthPassword != "" {
		clone.SetBasicAuth(t.cfg.BasicAuthUsername, t.cfg.BasicAuthPassword)
	}
	for k, v := range t.cfg.Headers {
		clone.Header.Set(k, v)
	}

	return t.base.RoundTrip(clone)
}

func basicAuthEncoded(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
