package database

import (
	"context"
	"fmt"
	"time"

	"ai-image-decoder/internal/model"
)

// CommitIngest stores one file's image record, extraction and collection
// membership in a single transaction and returns the image ID. With
// unit.Replace the image's previous fields, prompt and tag links are dropped
// first.
func (d *Database) CommitIngest(ctx context.Context, unit model.IngestUnit) (int64, error) {
	done := observeQuery("commit_ingest")

	tx, err := d.BeginBatch(ctx)
	if err != nil {
		done(err)
		return 0, fmt.Errorf("begin ingest of %s: %w", unit.Image.Path, err)
	}

	rec := unit.Image
	id, err := d.writeUnit(tx, &rec, unit)
	if err = d.EndBatch(tx, err); err != nil {
		done(err)
		return 0, err
	}
	done(nil)
	return id, nil
}

func (d *Database) writeUnit(tx *Tx, rec *model.ImageRecord, unit model.IngestUnit) (int64, error) {
	id, err := d.UpsertImage(tx, rec)
	if err != nil {
		return 0, err
	}
	if unit.Replace {
		if err := clearExtraction(tx, id); err != nil {
			return 0, err
		}
	}
	if err := d.AppendExtractedFields(tx, id, unit.Extraction.Fields); err != nil {
		return 0, err
	}
	if err := d.AppendPrompt(tx, id, unit.Extraction.Prompt); err != nil {
		return 0, err
	}
	if err := d.UpsertTagsAndLinks(tx, id, unit.Extraction.Tags); err != nil {
		return 0, err
	}
	if _, err := d.UpsertCollectionAndMembership(tx, unit.Folders, id); err != nil {
		return 0, err
	}
	return id, nil
}

// RecordScanRoot remembers that root was scanned at t.
func (d *Database) RecordScanRoot(ctx context.Context, root string, recursive bool, t time.Time) error {
	done := observeQuery("record_scan_root")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
	INSERT INTO scan_roots (path, recursive, last_scanned_at) VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		recursive = excluded.recursive,
		last_scanned_at = excluded.last_scanned_at
	`, root, recursive, t.Unix())
	done(err)
	return err
}

// ListScanRoots returns every scanned root, most recent first.
func (d *Database) ListScanRoots(ctx context.Context) ([]ScanRoot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT path, recursive, last_scanned_at FROM scan_roots ORDER BY last_scanned_at DESC, path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roots []ScanRoot
	for rows.Next() {
		var r ScanRoot
		var ts int64
		if err := rows.Scan(&r.Path, &r.Recursive, &ts); err != nil {
			return nil, err
		}
		r.LastScannedAt = time.Unix(ts, 0)
		roots = append(roots, r)
	}
	return roots, rows.Err()
}
