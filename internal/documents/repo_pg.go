package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, file_name, mime_type, size_bytes,
storage_key, extracted_text_key, extracted_at, created_at`

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, user_id, file_name, mime_type, size_bytes,
    storage_key, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := doc.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.FileName, doc.MimeType, doc.SizeBytes,
		doc.StorageKey, now,
	)
	return err
}

// GetByID returns a document owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`

	var doc Document
	var extractedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID, documentID).Scan(
		&doc.ID, &doc.UserID, &doc.FileName, &doc.MimeType, &doc.SizeBytes,
		&doc.StorageKey, &doc.ExtractedTextKey, &extractedAt, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		doc.ExtractedAt = &t
	}
	return doc, nil
}

// UpdateExtraction records the extracted text key once per document.
func (r *PGRepo) UpdateExtraction(ctx context.Context, userID, documentID, extractedKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents
SET extracted_text_key = $1, extracted_at = $2
WHERE user_id = $3 AND id = $4 AND deleted_at IS NULL AND extracted_text_key = ''`

	_, err := r.DB.ExecContext(ctx, query, extractedKey, extractedAt, userID, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
