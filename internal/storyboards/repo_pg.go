package storyboards

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const storyboardColumns = `
id, user_id, title, status, story_text, scene_count,
summary, acts, characters, scenes, audio, style, captions, final_script,
created_at, updated_at`

// Create inserts a new storyboard.
func (r *PGRepo) Create(ctx context.Context, sb Storyboard) error {
	const query = `
INSERT INTO storyboards (
    id, user_id, title, status, story_text, scene_count,
    summary, acts, characters, scenes, audio, style, captions, final_script,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	cols, err := jsonColumns(sb)
	if err != nil {
		return err
	}

	now := sb.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err = r.DB.ExecContext(ctx, query,
		sb.ID, sb.UserID, sb.Title, sb.Status, sb.StoryText, sb.SceneCount,
		cols.summary, cols.acts, cols.characters, cols.scenes,
		cols.audio, cols.style, cols.captions, cols.finalScript,
		now, now,
	)
	return err
}

// GetByID returns a storyboard owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, storyboardID string) (Storyboard, error) {
	const query = `
SELECT ` + storyboardColumns + `
FROM storyboards
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, storyboardID)
	sb, err := scanStoryboard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Storyboard{}, ErrNotFound
		}
		return Storyboard{}, err
	}
	return sb, nil
}

// ListByUser lists storyboards ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Storyboard, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + storyboardColumns + `
FROM storyboards
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Storyboard
	for rows.Next() {
		sb, err := scanStoryboard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

// Update overwrites the storyboard's layered data and metadata.
func (r *PGRepo) Update(ctx context.Context, sb Storyboard) error {
	const query = `
UPDATE storyboards
SET title = $1, status = $2, story_text = $3, scene_count = $4,
    summary = $5::jsonb, acts = $6::jsonb, characters = $7::jsonb, scenes = $8::jsonb,
    audio = $9::jsonb, style = $10::jsonb, captions = $11::jsonb, final_script = $12::jsonb,
    updated_at = $13
WHERE user_id = $14 AND id = $15 AND deleted_at IS NULL`

	cols, err := jsonColumns(sb)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query,
		sb.Title, sb.Status, sb.StoryText, sb.SceneCount,
		cols.summary, cols.acts, cols.characters, cols.scenes,
		cols.audio, cols.style, cols.captions, cols.finalScript,
		time.Now().UTC(), sb.UserID, sb.ID,
	)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes a storyboard owned by the user.
func (r *PGRepo) Delete(ctx context.Context, userID, storyboardID string) error {
	const query = `
UPDATE storyboards
SET deleted_at = $1
WHERE user_id = $2 AND id = $3 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, time.Now().UTC(), userID, storyboardID)
	if err != nil {
		return err
	}
	updated, _ := res.RowsAffected()
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

type jsonbColumns struct {
	summary     sql.NullString
	acts        sql.NullString
	characters  sql.NullString
	scenes      sql.NullString
	audio       sql.NullString
	style       sql.NullString
	captions    sql.NullString
	finalScript sql.NullString
}

func jsonColumns(sb Storyboard) (jsonbColumns, error) {
	var cols jsonbColumns
	var err error
	if cols.summary, err = marshalNullable(sb.Summary == nil, sb.Summary); err != nil {
		return cols, err
	}
	if cols.acts, err = marshalNullable(sb.Acts == nil, sb.Acts); err != nil {
		return cols, err
	}
	if cols.characters, err = marshalNullable(sb.Characters == nil, sb.Characters); err != nil {
		return cols, err
	}
	if cols.scenes, err = marshalNullable(sb.Scenes == nil, sb.Scenes); err != nil {
		return cols, err
	}
	if cols.audio, err = marshalNullable(sb.Audio == nil, sb.Audio); err != nil {
		return cols, err
	}
	if cols.style, err = marshalNullable(sb.Style == nil, sb.Style); err != nil {
		return cols, err
	}
	if cols.captions, err = marshalNullable(sb.Captions == nil, sb.Captions); err != nil {
		return cols, err
	}
	if len(sb.FinalScript) > 0 {
		cols.finalScript = sql.NullString{String: string(sb.FinalScript), Valid: true}
	}
	return cols, nil
}

func marshalNullable(isNil bool, v any) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoryboard(row rowScanner) (Storyboard, error) {
	var sb Storyboard
	var summary, acts, characters, scenes, audio, style, captions, finalScript sql.NullString
	if err := row.Scan(
		&sb.ID, &sb.UserID, &sb.Title, &sb.Status, &sb.StoryText, &sb.SceneCount,
		&summary, &acts, &characters, &scenes, &audio, &style, &captions, &finalScript,
		&sb.CreatedAt, &sb.UpdatedAt,
	); err != nil {
		return Storyboard{}, err
	}
	if summary.Valid {
		if err := json.Unmarshal([]byte(summary.String), &sb.Summary); err != nil {
			return Storyboard{}, err
		}
	}
	if acts.Valid {
		if err := json.Unmarshal([]byte(acts.String), &sb.Acts); err != nil {
			return Storyboard{}, err
		}
	}
	if characters.Valid {
		if err := json.Unmarshal([]byte(characters.String), &sb.Characters); err != nil {
			return Storyboard{}, err
		}
	}
	if scenes.Valid {
		if err := json.Unmarshal([]byte(scenes.String), &sb.Scenes); err != nil {
			return Storyboard{}, err
		}
	}
	if audio.Valid {
		if err := json.Unmarshal([]byte(audio.String), &sb.Audio); err != nil {
			return Storyboard{}, err
		}
	}
	if style.Valid {
		if err := json.Unmarshal([]byte(style.String), &sb.Style); err != nil {
			return Storyboard{}, err
		}
	}
	if captions.Valid {
		if err := json.Unmarshal([]byte(captions.String), &sb.Captions); err != nil {
			return Storyboard{}, err
		}
	}
	if finalScript.Valid {
		sb.FinalScript = json.RawMessage(finalScript.String)
	}
	return sb, nil
}

var _ Repo = (*PGRepo)(nil)
