package healthprobe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
)

func TestHealth(t *testing.T) {
	checker := New()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	checker.Health()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
	}
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("uptime = %v, want >= 0", resp.UptimeSeconds)
	}
}

func TestReady(t *testing.T) {
	checker := New()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	checker.Ready()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before SetReady = %d, want 503", rec.Code)
	}

	checker.SetReady(true)
	rec = httptest.NewRecorder()
	checker.Ready()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status after SetReady = %d, want 200", rec.Code)
	}

	checker.SetReady(false)
	rec = httptest.NewRecorder()
	checker.Ready()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status after SetReady(false) = %d, want 503", rec.Code)
	}
}
