package ingest

import (
	"context"
	"time"

	"ai-image-decoder/internal/model"
)

// Store is the persistence the coordinator needs. *database.Database
// implements it.
type Store interface {
	FindImageByPath(ctx context.Context, path string) (model.ImageRecord, error)
	FindImageByHash(ctx context.Context, hash string) (model.ImageRecord, error)
	FindCollectionByPath(ctx context.Context, path string) (model.Collection, error)
	LoadExtraction(ctx context.Context, imageID int64) (model.Extraction, error)
	TouchImage(ctx context.Context, imageID int64, scannedAt time.Time) error
	// CommitIngest writes one file atomically and returns the image ID.
	CommitIngest(ctx context.Context, unit model.IngestUnit) (int64, error)
	RecordScanRoot(ctx context.Context, root string, recursive bool, t time.Time) error
	// Ping reports whether the store is still usable.
	Ping(ctx context.Context) error
}
