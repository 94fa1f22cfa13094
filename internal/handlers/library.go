package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ai-image-decoder/internal/collections"
	"ai-image-decoder/internal/model"
)

// ImageResponse is an image with everything extracted from it.
type ImageResponse struct {
	model.ImageRecord
	Extraction model.Extraction `json:"extraction"`
}

// ListCollections lists top-level collections, or the children of ?path=.
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	parent := r.URL.Query().Get("path")
	if parent != "" {
		normalized, err := collections.NormalizePath(parent)
		if err != nil {
			writeJSONError(w, "Invalid path", http.StatusBadRequest)
			return
		}
		parent = normalized
	}

	list, err := h.db.ListCollections(r.Context(), parent)
	if errors.Is(err, model.ErrNotFound) {
		writeJSONError(w, "Collection not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("Failed to list collections under %q: %v", parent, err)
		writeJSONError(w, "Failed to list collections", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, list)
}

// GetImage returns one image with its fields, prompt and tags.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid image id", http.StatusBadRequest)
		return
	}

	rec, err := h.db.GetImage(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		writeJSONError(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("Failed to load image %d: %v", id, err)
		writeJSONError(w, "Failed to load image", http.StatusInternalServerError)
		return
	}

	ex, err := h.db.LoadExtraction(r.Context(), id)
	if err != nil {
		log.Error("Failed to load extraction of image %d: %v", id, err)
		writeJSONError(w, "Failed to load image", http.StatusInternalServerError)
		return
	}
	if ex.Fields == nil {
		ex.Fields = []model.ExtractedField{}
	}
	if ex.Tags == nil {
		ex.Tags = []model.TagLink{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ImageResponse{ImageRecord: rec, Extraction: ex})
}

// GetStats returns library totals.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.CalculateStats(r.Context())
	if err != nil {
		log.Error("Failed to calculate stats: %v", err)
		writeJSONError(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}

// ListScanRoots returns every root scanned to completion.
func (h *Handlers) ListScanRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.db.ListScanRoots(r.Context())
	if err != nil {
		log.Error("Failed to list scan roots: %v", err)
		writeJSONError(w, "Failed to list scan roots", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, roots)
}
