package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ai-image-decoder/internal/model"
	"ai-image-decoder/internal/params"
)

// AppendPrompt stores the prompt of an image. An image keeps the first
// prompt stored for it; later calls are ignored.
func (d *Database) AppendPrompt(tx *Tx, imageID int64, p *model.PromptRecord) error {
	if p == nil {
		return nil
	}
	settings, err := params.EncodeSettings(p.Settings)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(context.Background(), `
	INSERT INTO prompts (image_id, prompt_text, negative_prompt, prompt_type, settings_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(image_id) DO NOTHING
	`, imageID, p.Prompt, p.NegativePrompt, string(p.Type), settings)
	if err != nil {
		return fmt.Errorf("append prompt: %w", err)
	}
	return nil
}

// AppendExtractedFields adds raw fields to an image. A (key, source) pair
// already stored for the image keeps its first value.
func (d *Database) AppendExtractedFields(tx *Tx, imageID int64, fields []model.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(context.Background(), `
	INSERT INTO extracted_fields (image_id, key, value, source) VALUES (?, ?, ?, ?)
	ON CONFLICT(image_id, key, source) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare field insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fields {
		if _, err := stmt.ExecContext(context.Background(), imageID, f.Key, f.Value, string(f.Source)); err != nil {
			return fmt.Errorf("append field %s: %w", f.Key, err)
		}
	}
	return nil
}

// UpsertTagsAndLinks creates missing tags and links them to the image. An
// existing link keeps the higher confidence and that link's provenance.
func (d *Database) UpsertTagsAndLinks(tx *Tx, imageID int64, links []model.TagLink) error {
	for _, l := range links {
		if l.Name == "" {
			continue
		}
		tagID, err := upsertTag(tx, l.Name, l.Category)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(context.Background(), `
		INSERT INTO image_tags (image_id, tag_id, confidence, provenance) VALUES (?, ?, ?, ?)
		ON CONFLICT(image_id, tag_id) DO UPDATE SET
			provenance = CASE WHEN excluded.confidence > image_tags.confidence
				THEN excluded.provenance ELSE image_tags.provenance END,
			confidence = max(image_tags.confidence, excluded.confidence)
		`, imageID, tagID, l.Confidence, string(l.Provenance))
		if err != nil {
			return fmt.Errorf("link tag %s: %w", l.Name, err)
		}
	}
	return nil
}

func upsertTag(tx *Tx, name string, category model.TagCategory) (int64, error) {
	_, err := tx.ExecContext(context.Background(),
		"INSERT INTO tags (name, category) VALUES (?, ?) ON CONFLICT(name, category) DO NOTHING",
		name, string(category))
	if err != nil {
		return 0, fmt.Errorf("create tag %s: %w", name, err)
	}
	var id int64
	err = tx.QueryRowContext(context.Background(),
		"SELECT id FROM tags WHERE name = ? AND category = ?", name, string(category)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("read tag id %s: %w", name, err)
	}
	return id, nil
}

// clearExtraction removes the fields, prompt and tag links of an image whose
// content changed.
func clearExtraction(tx *Tx, imageID int64) error {
	for _, q := range []string{
		"DELETE FROM extracted_fields WHERE image_id = ?",
		"DELETE FROM prompts WHERE image_id = ?",
		"DELETE FROM image_tags WHERE image_id = ?",
	} {
		if _, err := tx.ExecContext(context.Background(), q, imageID); err != nil {
			return fmt.Errorf("clear extraction: %w", err)
		}
	}
	return nil
}

// LoadExtraction reads back everything stored for an image's content.
func (d *Database) LoadExtraction(ctx context.Context, imageID int64) (model.Extraction, error) {
	done := observeQuery("load_extraction")
	ex, err := d.loadExtraction(ctx, imageID)
	done(err)
	return ex, err
}

func (d *Database) loadExtraction(ctx context.Context, imageID int64) (model.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ex model.Extraction

	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value, source FROM extracted_fields WHERE image_id = ? ORDER BY id", imageID)
	if err != nil {
		return ex, err
	}
	for rows.Next() {
		var f model.ExtractedField
		var src string
		if err := rows.Scan(&f.Key, &f.Value, &src); err != nil {
			rows.Close()
			return ex, err
		}
		f.Source = model.FieldSource(src)
		ex.Fields = append(ex.Fields, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return ex, err
	}
	rows.Close()

	var p model.PromptRecord
	var ptype, settings string
	err = d.db.QueryRowContext(ctx,
		"SELECT id, prompt_text, negative_prompt, prompt_type, settings_json FROM prompts WHERE image_id = ?",
		imageID).Scan(&p.ID, &p.Prompt, &p.NegativePrompt, &ptype, &settings)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ex, err
	default:
		p.Type = model.PromptType(ptype)
		if p.Settings, err = params.DecodeSettings(settings); err != nil {
			return ex, err
		}
		ex.Prompt = &p
	}

	rows, err = d.db.QueryContext(ctx, `
	SELECT t.name, t.category, it.confidence, it.provenance
	FROM image_tags it JOIN tags t ON t.id = it.tag_id
	WHERE it.image_id = ?
	ORDER BY t.category, t.name
	`, imageID)
	if err != nil {
		return ex, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.TagLink
		var cat, prov string
		if err := rows.Scan(&l.Name, &cat, &l.Confidence, &prov); err != nil {
			return ex, err
		}
		l.Category = model.TagCategory(cat)
		l.Provenance = model.Provenance(prov)
		ex.Tags = append(ex.Tags, l)
	}
	return ex, rows.Err()
}
