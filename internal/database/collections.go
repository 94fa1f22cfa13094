package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ai-image-decoder/internal/model"
)

// UpsertCollectionAndMembership makes sure every folder of chain (root-most
// first) has a collection, each parented to the one before it, and links the
// image to the last one. It returns the ID of that collection. An empty
// chain is a no-op.
func (d *Database) UpsertCollectionAndMembership(tx *Tx, chain []model.Folder, imageID int64) (int64, error) {
	var parent sql.NullInt64
	var id int64
	for _, f := range chain {
		var err error
		id, err = upsertCollection(tx, f, parent)
		if err != nil {
			return 0, err
		}
		parent = sql.NullInt64{Int64: id, Valid: true}
	}
	if !parent.Valid {
		return 0, nil
	}

	_, err := tx.ExecContext(context.Background(),
		"INSERT INTO collection_images (collection_id, image_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		id, imageID)
	if err != nil {
		return 0, fmt.Errorf("add image to collection: %w", err)
	}
	return id, nil
}

func upsertCollection(tx *Tx, f model.Folder, parent sql.NullInt64) (int64, error) {
	_, err := tx.ExecContext(context.Background(), `
	INSERT INTO collections (path, name, parent_id) VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET parent_id = COALESCE(collections.parent_id, excluded.parent_id)
	`, f.Path, f.Name, parent)
	if err != nil {
		return 0, fmt.Errorf("upsert collection %s: %w", f.Path, err)
	}
	var id int64
	if err := tx.QueryRowContext(context.Background(),
		"SELECT id FROM collections WHERE path = ?", f.Path).Scan(&id); err != nil {
		return 0, fmt.Errorf("read collection id %s: %w", f.Path, err)
	}
	return id, nil
}

// FindCollectionByPath returns the collection for a normalized folder path,
// or model.ErrNotFound.
func (d *Database) FindCollectionByPath(ctx context.Context, path string) (model.Collection, error) {
	done := observeQuery("find_collection_by_path")
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c model.Collection
	var parent sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, path, name, parent_id FROM collections WHERE path = ?", path).
		Scan(&c.ID, &c.Path, &c.Name, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		err = model.ErrNotFound
	}
	if err == nil && parent.Valid {
		c.ParentID = parent.Int64
	}
	done(err)
	return c, err
}

// ListCollections lists the children of the collection at parentPath, or the
// top-level collections when parentPath is empty.
func (d *Database) ListCollections(ctx context.Context, parentPath string) ([]CollectionSummary, error) {
	done := observeQuery("list_collections")
	var err error
	defer func() { done(err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where := "c.parent_id IS NULL"
	args := []any{}
	if parentPath != "" {
		var parent model.Collection
		parent, err = d.FindCollectionByPath(ctx, parentPath)
		if err != nil {
			return nil, err
		}
		where = "c.parent_id = ?"
		args = append(args, parent.ID)
	}

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, `
	SELECT c.id, c.path, c.name, COALESCE(c.parent_id, 0),
		(SELECT COUNT(*) FROM collection_images ci WHERE ci.collection_id = c.id),
		(SELECT COUNT(*) FROM collections cc WHERE cc.parent_id = c.id)
	FROM collections c
	WHERE `+where+`
	ORDER BY c.name COLLATE NOCASE, c.path
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []CollectionSummary{}
	for rows.Next() {
		var s CollectionSummary
		if err = rows.Scan(&s.ID, &s.Path, &s.Name, &s.ParentID, &s.ImageCount, &s.ChildrenCount); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	err = rows.Err()
	return result, err
}
