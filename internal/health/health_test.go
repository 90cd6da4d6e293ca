package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestLiveHandler(t *testing.T) {
	c := New()

	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Status != StatusUp {
		t.Errorf("expected status up, got %s", resp.Status)
	}
}

func TestReadyHandlerNoChecks(t *testing.T) {
	c := New()

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with no checks registered, got %d", rec.Code)
	}
}

func TestReadyHandlerPassingCheck(t *testing.T) {
	c := New()
	c.RegisterReadiness("queue", func() error { return nil })

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Components["queue"].Status != StatusUp {
		t.Errorf("expected queue component up, got %+v", resp.Components)
	}
}

func TestReadyHandlerFailingCheck(t *testing.T) {
	c := New()
	c.RegisterReadiness("queue", func() error { return nil })
	c.RegisterReadiness("sink", func() error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != StatusDown {
		t.Errorf("expected overall status down, got %s", resp.Status)
	}
	if resp.Components["queue"].Status != StatusUp {
		t.Error("healthy component must still report up")
	}
	if got := resp.Components["sink"]; got.Status != StatusDown || got.Message != "connection refused" {
		t.Errorf("failing component not reported, got %+v", got)
	}
}

func TestReadyHandlerCheckRecovers(t *testing.T) {
	c := New()
	healthy := false
	c.RegisterReadiness("queue", func() error {
		if !healthy {
			return errors.New("queue saturated")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while unhealthy, got %d", rec.Code)
	}

	healthy = true
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after recovery, got %d", rec.Code)
	}
}

func TestShuttingDown(t *testing.T) {
	c := New()
	c.RegisterReadiness("queue", func() error { return nil })
	c.SetShuttingDown()

	for _, h := range []http.HandlerFunc{c.LiveHandler(), c.ReadyHandler()} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 during shutdown, got %d", rec.Code)
		}
		resp := decodeResponse(t, rec)
		if resp.Components["process"].Message != "shutting down" {
			t.Errorf("expected shutdown message, got %+v", resp.Components)
		}
	}
}
