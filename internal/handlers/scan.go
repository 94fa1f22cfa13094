package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ai-image-decoder/internal/ingest"
)

// ScanRequest is the body of POST /api/scan. Both fields are optional.
type ScanRequest struct {
	Root      string `json:"root"`
	Recursive *bool  `json:"recursive,omitempty"`
}

// ScanStartedResponse is returned with 202 Accepted.
type ScanStartedResponse struct {
	ScanID    string `json:"scanId"`
	Root      string `json:"root"`
	Recursive bool   `json:"recursive"`
}

// ConflictResponse is returned with 409 while another scan runs.
type ConflictResponse struct {
	Error  string        `json:"error"`
	Status ingest.Status `json:"status"`
}

// StartScan starts a background scan.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	root := req.Root
	if root == "" {
		root = h.defaultRoot
	}
	if root == "" {
		writeJSONError(w, "root is required", http.StatusBadRequest)
		return
	}
	recursive := h.recursive
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	id, err := h.coordinator.StartScan(r.Context(), root, recursive)
	switch {
	case errors.Is(err, ingest.ErrScanInProgress):
		writeJSONStatus(w, http.StatusConflict, ConflictResponse{
			Error:  err.Error(),
			Status: h.coordinator.Status(),
		})
		return
	case errors.Is(err, ingest.ErrInvalidRoot):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Error("Failed to start scan of %s: %v", root, err)
		writeJSONError(w, "Failed to start scan", http.StatusInternalServerError)
		return
	}

	status := h.coordinator.Status()
	writeJSONStatus(w, http.StatusAccepted, ScanStartedResponse{
		ScanID:    id,
		Root:      status.Root,
		Recursive: recursive,
	})
}

// GetScanStatus returns the progress of the current or last scan.
func (h *Handlers) GetScanStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.coordinator.Status())
}

// StopScan asks the running scan to stop.
func (h *Handlers) StopScan(w http.ResponseWriter, _ *http.Request) {
	if err := h.coordinator.StopScan(); err != nil {
		if errors.Is(err, ingest.ErrNotScanning) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSONError(w, "Failed to stop scan", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}
