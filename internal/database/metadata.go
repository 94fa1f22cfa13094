package database

import (
	"context"
	"database/sql"
	"errors"

	"ai-image-decoder/internal/model"
)

// Keys in the metadata table.
const metaSchemaVersion = "schema_version"

// GetMetadata reads one library setting. Missing keys give model.ErrNotFound.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	done := observeQuery("get_metadata")
	var err error
	defer func() { done(err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = d.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", model.ErrNotFound
	}
	return value, err
}

// SetMetadata stores one library setting, replacing any previous value.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	done := observeQuery("set_metadata")
	var err error
	defer func() { done(err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
