package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-image-decoder/internal/ingest"
	"ai-image-decoder/internal/startup"
)

func TestHealthCheck(t *testing.T) {
	h, db, _ := setupHandlers(t, Options{})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != statusHealthy || !resp.Ready || resp.Database != "ok" || resp.Scan != ingest.StateIdle {
		t.Errorf("response = %+v", resp)
	}
	if resp.Version != startup.Version || resp.NumCPU == 0 {
		t.Errorf("build info = %+v", resp)
	}

	db.Close()

	rec = httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status after close = %d, want 503", rec.Code)
	}
	if resp := decode[HealthResponse](t, rec); resp.Ready || resp.Status != statusDegraded {
		t.Errorf("response after close = %+v", resp)
	}
}

func TestLivenessCheck(t *testing.T) {
	h, _, _ := setupHandlers(t, Options{})

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		h.LivenessCheck(rec, httptest.NewRequest(method, "/livez", http.NoBody))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", method, rec.Code)
		}
		if method == http.MethodHead && rec.Body.Len() != 0 {
			t.Errorf("HEAD body = %q", rec.Body.String())
		}
	}
}

func TestReadinessCheck(t *testing.T) {
	h, db, _ := setupHandlers(t, Options{})

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ready"`) {
		t.Errorf("ready = %d %s", rec.Code, rec.Body.String())
	}

	db.Close()
	rec = httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("after close = %d, want 503", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	h, _, _ := setupHandlers(t, Options{})

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
	info := decode[startup.BuildInfo](t, rec)
	if info != startup.GetBuildInfo() {
		t.Errorf("info = %+v, want %+v", info, startup.GetBuildInfo())
	}
}

func TestMetricsHandler(t *testing.T) {
	h, _, _ := setupHandlers(t, Options{})

	rec := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
