package documents

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/extract"
	"storyboard-backend/internal/shared/storage/object"
)

// Service contains business logic for story documents.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload saves the file to object storage and records the document.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// Get returns a document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// Text returns the extracted story text for a document. Extraction runs
// once; subsequent calls read the cached copy from object storage.
func (s *Service) Text(ctx context.Context, userID, documentID string) (string, error) {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return "", err
	}

	if doc.ExtractedTextKey != "" {
		body, err := s.Store.Open(ctx, doc.ExtractedTextKey)
		if err == nil {
			defer body.Close()
			raw, readErr := io.ReadAll(body)
			if readErr == nil {
				return string(raw), nil
			}
		}
		// Cached copy unreadable, re-extract below.
	}

	text, err := extract.ExtractText(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return "", err
	}

	extractedKey := doc.StorageKey + ".extracted.txt"
	if err := s.Repo.UpdateExtraction(ctx, userID, documentID, extractedKey, time.Now().UTC()); err != nil {
		return "", err
	}

	return text, nil
}
