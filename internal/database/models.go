package database

import (
	"time"

	"ai-image-decoder/internal/model"
)

// CollectionSummary is a collection with the number of images directly in it.
type CollectionSummary struct {
	model.Collection
	ImageCount    int `json:"imageCount"`
	ChildrenCount int `json:"childrenCount"`
}

// ScanRoot is a directory that has been scanned.
type ScanRoot struct {
	Path          string    `json:"path"`
	Recursive     bool      `json:"recursive"`
	LastScannedAt time.Time `json:"lastScannedAt"`
}

// LibraryStats holds table totals.
type LibraryStats struct {
	Images      int            `json:"images"`
	Prompts     int            `json:"prompts"`
	Fields      int            `json:"fields"`
	Collections int            `json:"collections"`
	Tags        map[string]int `json:"tags"`
}
