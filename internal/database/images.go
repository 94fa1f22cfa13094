package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-image-decoder/internal/model"
)

const imageColumns = `id, path, file_name, size, format, width, height, hash, created_at, last_scanned_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (model.ImageRecord, error) {
	var rec model.ImageRecord
	var createdAt, scannedAt int64
	err := row.Scan(&rec.ID, &rec.Path, &rec.FileName, &rec.Size, &rec.Format,
		&rec.Width, &rec.Height, &rec.Hash, &createdAt, &scannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, model.ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.LastScannedAt = time.Unix(scannedAt, 0)
	return rec, nil
}

// FindImageByPath returns the image stored at path, or model.ErrNotFound.
func (d *Database) FindImageByPath(ctx context.Context, path string) (model.ImageRecord, error) {
	done := observeQuery("find_image_by_path")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec, err := scanImage(d.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE path = ?", path))
	done(err)
	return rec, err
}

// FindImageByHash returns the earliest image with the given content hash,
// or model.ErrNotFound.
func (d *Database) FindImageByHash(ctx context.Context, hash string) (model.ImageRecord, error) {
	done := observeQuery("find_image_by_hash")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec, err := scanImage(d.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE hash = ? ORDER BY id LIMIT 1", hash))
	done(err)
	return rec, err
}

// GetImage returns the image with the given ID, or model.ErrNotFound.
func (d *Database) GetImage(ctx context.Context, id int64) (model.ImageRecord, error) {
	done := observeQuery("get_image")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec, err := scanImage(d.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE id = ?", id))
	done(err)
	return rec, err
}

// TouchImage refreshes last_scanned_at of an unchanged image.
func (d *Database) TouchImage(ctx context.Context, id int64, scannedAt time.Time) error {
	done := observeQuery("touch_image")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		"UPDATE images SET last_scanned_at = ? WHERE id = ?", scannedAt.Unix(), id)
	if err == nil {
		if n, _ := res.RowsAffected(); n == 0 {
			err = model.ErrNotFound
		}
	}
	done(err)
	return err
}

// UpsertImage inserts the image or updates the row already stored at its
// path, returning the row ID. created_at is kept on update.
func (d *Database) UpsertImage(tx *Tx, rec *model.ImageRecord) (int64, error) {
	scanned := rec.LastScannedAt
	if scanned.IsZero() {
		scanned = time.Now()
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = scanned
	}

	_, err := tx.ExecContext(context.Background(), `
	INSERT INTO images (path, file_name, size, format, width, height, hash, created_at, last_scanned_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		file_name = excluded.file_name,
		size = excluded.size,
		format = excluded.format,
		width = excluded.width,
		height = excluded.height,
		hash = excluded.hash,
		last_scanned_at = excluded.last_scanned_at
	`, rec.Path, rec.FileName, rec.Size, rec.Format, rec.Width, rec.Height, rec.Hash,
		created.Unix(), scanned.Unix())
	if err != nil {
		return 0, fmt.Errorf("upsert image %s: %w", rec.Path, err)
	}

	var id int64
	if err := tx.QueryRowContext(context.Background(),
		"SELECT id FROM images WHERE path = ?", rec.Path).Scan(&id); err != nil {
		return 0, fmt.Errorf("read image id %s: %w", rec.Path, err)
	}
	rec.ID = id
	return id, nil
}
