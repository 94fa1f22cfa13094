package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"ai-image-decoder/internal/collections"
	"ai-image-decoder/internal/dedup"
	"ai-image-decoder/internal/extraction"
	"ai-image-decoder/internal/filesystem"
	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/metrics"
	"ai-image-decoder/internal/model"
	"ai-image-decoder/internal/params"
	"ai-image-decoder/internal/scanner"
	"ai-image-decoder/internal/tagger"
)

// run holds the state shared by the workers of one scan.
type run struct {
	c         *Coordinator
	root      string
	index     *dedup.Index
	scannedAt time.Time

	// folders already checked against the store during this scan
	seenFolders sync.Map
}

// fileResult is what processing one file produced.
type fileResult struct {
	outcome outcome
	// warning is set when a damaged container was salvaged.
	warning error
}

// process runs the pipeline for one file. The returned error is a *FileError
// for failures confined to the file, or a *fatalError when the store is gone.
func (r *run) process(ctx context.Context, cand scanner.Candidate) (fileResult, error) {
	path := cand.Path
	size := cand.Info.Size()

	if limit := r.c.opts.MaxFileSize; limit > 0 && size > limit {
		return fileResult{outcome: outcomeError},
			fileError(path, KindIO, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size))
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fileResult{outcome: outcomeError}, fileError(path, KindIO, err)
	}
	defer f.Close()

	fmtKind, err := format.SniffReader(f)
	if err != nil {
		return fileResult{outcome: outcomeError}, fileError(path, KindIO, err)
	}
	if fmtKind == format.FormatUnknown {
		return fileResult{outcome: outcomeSkipped}, fileError(path, KindUnsupported, format.ErrUnsupportedFormat)
	}

	hash, err := dedup.Hash(io.NewSectionReader(f, 0, size))
	if err != nil {
		return fileResult{outcome: outcomeError}, fileError(path, KindIO, err)
	}

	decision, existing, err := r.index.Classify(ctx, path, hash)
	if err != nil {
		return r.storageFailure(ctx, path, err)
	}
	if decision == dedup.Unchanged {
		if err := r.c.store.TouchImage(ctx, existing.ID, r.scannedAt); err != nil {
			return r.storageFailure(ctx, path, err)
		}
		return fileResult{outcome: outcomeUnchanged}, nil
	}

	out, err := r.index.Extract(ctx, path, hash, func() (dedup.Outcome, error) {
		return decode(f, size, fmtKind)
	})
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			o := outcomeError
			if fe.Kind == KindUnsupported {
				o = outcomeSkipped
			}
			return fileResult{outcome: o}, fileError(path, fe.Kind, fe.Err)
		}
		return r.storageFailure(ctx, path, err)
	}

	chain, err := collections.Chain(r.root, path)
	if err != nil {
		return fileResult{outcome: outcomeError}, fileError(path, KindIO, err)
	}
	r.checkFolders(ctx, chain)

	unit := model.IngestUnit{
		Image: model.ImageRecord{
			Path:          path,
			FileName:      filepath.Base(path),
			Size:          size,
			Format:        out.Format,
			Width:         out.Width,
			Height:        out.Height,
			Hash:          hash,
			CreatedAt:     r.scannedAt,
			LastScannedAt: r.scannedAt,
		},
		Extraction: out.Extraction,
		Folders:    chain,
		Replace:    decision == dedup.Changed,
	}

	if _, err := r.c.store.CommitIngest(ctx, unit); err != nil {
		return r.storageFailure(ctx, path, err)
	}
	if !out.Copied {
		r.index.Committed(hash)
	}

	res := fileResult{outcome: outcomeProcessed, warning: out.Warning}
	if out.Copied {
		res.outcome = outcomeDuplicate
		log.Debug("Copied extraction of %s from %s", path, out.Origin)
	}
	return res, nil
}

// decode runs the container reader, the prompt parser and the tagger over
// one file's bytes.
func decode(r io.ReaderAt, size int64, f format.Format) (dedup.Outcome, error) {
	start := time.Now()
	res, err := extraction.Extract(r, size)
	metrics.ExtractionDuration.WithLabelValues(f.String()).Observe(time.Since(start).Seconds())

	var warning error
	switch {
	case res == nil && errors.Is(err, format.ErrUnsupportedFormat):
		return dedup.Outcome{}, &FileError{Kind: KindUnsupported, Err: err}
	case res == nil && err != nil:
		return dedup.Outcome{}, &FileError{Kind: KindIO, Err: err}
	case err != nil:
		warning = err
		metrics.ExtractionTotal.WithLabelValues(f.String(), "malformed").Inc()
	default:
		metrics.ExtractionTotal.WithLabelValues(f.String(), "ok").Inc()
	}

	ex := model.Extraction{Fields: res.Fields}
	if p, ok := params.Resolve(res.Fields); ok {
		ex.Prompt = p.Record()
		ex.Tags = tagger.Extract(p.Prompt, p.NegativePrompt, p.Settings)
		metrics.PromptsParsedTotal.WithLabelValues(string(p.Source)).Inc()
		for _, t := range ex.Tags {
			metrics.TagsDerivedTotal.WithLabelValues(string(t.Category)).Inc()
		}
	}

	return dedup.Outcome{
		Extraction: ex,
		Format:     res.Format.String(),
		Width:      res.Width,
		Height:     res.Height,
		Warning:    warning,
	}, nil
}

// storageFailure turns a store error into a per-file error, or into a fatal
// one when the store no longer answers.
func (r *run) storageFailure(ctx context.Context, path string, err error) (fileResult, error) {
	if pingErr := r.c.store.Ping(ctx); pingErr != nil {
		return fileResult{outcome: outcomeError}, &fatalError{err: fmt.Errorf("storage failed on %s: %w", path, errors.Join(err, pingErr))}
	}
	return fileResult{outcome: outcomeError}, fileError(path, KindStorage, err)
}

// checkFolders counts folders of chain that have no collection yet. Each
// folder is looked up at most once per scan.
func (r *run) checkFolders(ctx context.Context, chain []model.Folder) {
	for _, folder := range chain {
		if _, loaded := r.seenFolders.LoadOrStore(folder.Path, struct{}{}); loaded {
			continue
		}
		_, err := r.c.store.FindCollectionByPath(ctx, folder.Path)
		switch {
		case errors.Is(err, model.ErrNotFound):
			r.c.addNewCollection()
			log.Debug("New collection %s", folder.Path)
		case err != nil:
			log.Warn("Collection lookup for %s failed: %v", folder.Path, err)
		}
	}
}
