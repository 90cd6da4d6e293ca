package sink

import (
	"errors"
	"testing"
)

func TestExportErrorError(t *testing.T) {
	underlying := errors.New("boom")
	e := &ExportError{Err: underlying, Type: ErrorTypeNetwork}
	if e.Error() != "boom" {
		t.Errorf("expected underlying message, got %q", e.Error())
	}

	noUnderlying := &ExportError{Type: ErrorTypeServerError, StatusCode: 500}
	if noUnderlying.Error() == "" {
		t.Error("expected a synthesized message when Err is nil")
	}
}

func TestExportErrorUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	e := &ExportError{Err: underlying}
	if !errors.Is(e, underlying) {
		t.Error("errors.Is must see the wrapped error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want bool
	}{
		{ErrorTypeServerError, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeAuth, false},
		{ErrorTypeClientError, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		e := &ExportError{Type: tt.typ}
		if got := e.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestIsPayloadTooLarge(t *testing.T) {
	tests := []struct {
		name string
		err  *ExportError
		want bool
	}{
		{"413", &ExportError{StatusCode: 413}, true},
		{"400 too big", &ExportError{StatusCode: 400, Message: "request is too big"}, true},
		{"client error exceeds", &ExportError{Type: ErrorTypeClientError, Message: "exceeds the configured limit"}, true},
		{"400 unrelated", &ExportError{StatusCode: 400, Message: "malformed protobuf"}, false},
		{"500", &ExportError{StatusCode: 500, Message: "too large"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsPayloadTooLarge(); got != tt.want {
				t.Errorf("IsPayloadTooLarge() = %v, want %v", got, tt.want)
			}
		})
	}
}
