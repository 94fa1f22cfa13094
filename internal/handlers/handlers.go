package handlers

import (
	"time"

	"ai-image-decoder/internal/database"
	"ai-image-decoder/internal/ingest"
	"ai-image-decoder/internal/logging"
)

var log = logging.New("api")

// Handlers serves the HTTP API over the library database and the scan
// coordinator.
type Handlers struct {
	db          *database.Database
	coordinator *ingest.Coordinator
	defaultRoot string
	recursive   bool
	startedAt   time.Time
}

// Options configures defaults used when a request leaves them out.
type Options struct {
	// DefaultRoot is scanned when POST /api/scan names no root.
	DefaultRoot string
	// Recursive is the default of the recursive flag.
	Recursive bool
}

// New creates the API handlers.
func New(db *database.Database, coordinator *ingest.Coordinator, opts Options) *Handlers {
	return &Handlers{
		db:          db,
		coordinator: coordinator,
		defaultRoot: opts.DefaultRoot,
		recursive:   opts.Recursive,
		startedAt:   time.Now(),
	}
}
