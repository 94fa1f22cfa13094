package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"ai-image-decoder/internal/model"
)

// Decision is what the pipeline should do with a file.
type Decision int

const (
	New Decision = iota
	Unchanged
	Changed
)

func (d Decision) String() string {
	switch d {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "new"
	}
}

// Lookup is the part of the store the index reads.
type Lookup interface {
	FindImageByPath(ctx context.Context, path string) (model.ImageRecord, error)
	FindImageByHash(ctx context.Context, hash string) (model.ImageRecord, error)
	LoadExtraction(ctx context.Context, imageID int64) (model.Extraction, error)
}

// Outcome is the decoded content of one hash.
type Outcome struct {
	Extraction model.Extraction
	Format     string
	Width      int
	Height     int
	// Warning is set when the decoder salvaged a damaged container.
	Warning error
	// Origin is the path that was decoded, or the stored path copied from.
	Origin string
	// Copied is true when this caller did not run the decoder itself.
	Copied bool
}

// ExtractFunc decodes the caller's own file.
type ExtractFunc func() (Outcome, error)

// Index is safe for concurrent use. One Index serves one scan.
type Index struct {
	store Lookup
	group singleflight.Group

	mu      sync.Mutex
	pending map[string]Outcome
}

// NewIndex returns an Index reading from store.
func NewIndex(store Lookup) *Index {
	return &Index{store: store, pending: make(map[string]Outcome)}
}

// Classify looks path up. existing is the stored record when the path is known.
func (ix *Index) Classify(ctx context.Context, path, hash string) (Decision, *model.ImageRecord, error) {
	rec, err := ix.store.FindImageByPath(ctx, path)
	if errors.Is(err, model.ErrNotFound) {
		return New, nil, nil
	}
	if err != nil {
		return New, nil, fmt.Errorf("find image by path: %w", err)
	}
	if rec.Hash == hash {
		return Unchanged, &rec, nil
	}
	return Changed, &rec, nil
}

// Extract returns the content for hash, decoding with fn only when neither
// the store nor another worker already has it. path is the caller's file.
func (ix *Index) Extract(ctx context.Context, path, hash string, fn ExtractFunc) (Outcome, error) {
	v, err, _ := ix.group.Do(hash, func() (any, error) {
		ix.mu.Lock()
		out, ok := ix.pending[hash]
		ix.mu.Unlock()
		if ok {
			return out, nil
		}

		rec, err := ix.store.FindImageByHash(ctx, hash)
		switch {
		case err == nil && rec.Path != path:
			ex, err := ix.store.LoadExtraction(ctx, rec.ID)
			if err != nil {
				return nil, fmt.Errorf("load extraction of %s: %w", rec.Path, err)
			}
			return Outcome{
				Extraction: ex,
				Format:     rec.Format,
				Width:      rec.Width,
				Height:     rec.Height,
				Origin:     rec.Path,
			}, nil
		case err != nil && !errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("find image by hash: %w", err)
		}

		out, err = fn()
		if err != nil {
			return nil, err
		}
		out.Origin = path
		ix.mu.Lock()
		ix.pending[hash] = out
		ix.mu.Unlock()
		return out, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	out := v.(Outcome)
	out.Copied = out.Origin != path
	if out.Copied {
		// a salvage warning belongs to the file that was decoded
		out.Warning = nil
	}
	return out, nil
}

// Committed releases the held extraction of hash once the store has it.
func (ix *Index) Committed(hash string) {
	ix.mu.Lock()
	delete(ix.pending, hash)
	ix.mu.Unlock()
}

// Pending reports how many extractions are held awaiting commit.
func (ix *Index) Pending() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.pending)
}
