package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ai-image-decoder/internal/ingest"
	"ai-image-decoder/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string       `json:"status"`
	Ready     bool         `json:"ready"`
	Version   string       `json:"version"`
	Uptime    string       `json:"uptime"`
	Database  string       `json:"database"`
	Scan      ingest.State `json:"scan"`
	LastError string       `json:"lastError,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

func (h *Handlers) pingDB(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Ping(ctx)
}

// HealthCheck reports database reachability and the scan state. A failed
// last scan degrades the status but keeps the service ready.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	scan := h.coordinator.Status()
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Database:     "ok",
		Scan:         scan.State,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if scan.State == ingest.StateFailed {
		response.Status = statusDegraded
		response.LastError = scan.LastError
	}

	code := http.StatusOK
	if err := h.pingDB(r.Context()); err != nil {
		response.Status = statusDegraded
		response.Ready = false
		response.Database = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSONStatus(w, code, response)
}

// LivenessCheck always returns 200 while the process serves requests.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only while the database answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDB(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}
