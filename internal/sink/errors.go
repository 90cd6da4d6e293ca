package sink

import (
	"fmt"
	"strings"
)

// ExportError is a structured error returned from export operations. It
// carries the classified error type and, for HTTP, the status code and
// response detail. The engine never retries; the classification exists for
// metrics and log context.
type ExportError struct {
	// Err is the underlying error.
	Err error
	// Type is the classified error type.
	Type ErrorType
	// StatusCode is the HTTP status code (0 for gRPC or network errors).
	StatusCode int
	// Message is the response body or error detail from the backend.
	Message string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("export error: type=%s status=%d", e.Type, e.StatusCode)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the same request might succeed if re-sent.
// Advisory only: the batching engine drops failed batches regardless.
func (e *ExportError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// IsPayloadTooLarge reports whether the backend rejected the request for
// exceeding its size limit (HTTP 413 or a recognizable response message).
func (e *ExportError) IsPayloadTooLarge() bool {
	if e.StatusCode == 413 {
		return true
	}
	msg := strings.ToLower(e.Message)
	if e.StatusCode == 400 || e.Type == ErrorTypeClientError {
		for _, p := range []string{
			"too big",
			"too large",
			"exceeds",
			"payload too large",
			"request entity too large",
			"body too large",
		} {
			if strings.Contains(msg, p) {
				return true
			}
		}
	}
	return false
}
