package storyboards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultSceneCount = 10
	maxSceneCount     = 50
)

// Service contains business logic for storyboards.
type Service struct {
	Repo Repo
}

// Create records a new draft storyboard from raw story text.
func (s *Service) Create(ctx context.Context, userID, title, storyText string, sceneCount int) (Storyboard, error) {
	if userID == "" {
		return Storyboard{}, errors.New("user id required")
	}
	storyText = strings.TrimSpace(storyText)
	if storyText == "" {
		return Storyboard{}, fmt.Errorf("%w: storyText is required", ErrInvalidInput)
	}
	if sceneCount <= 0 {
		sceneCount = defaultSceneCount
	}
	if sceneCount > maxSceneCount {
		return Storyboard{}, fmt.Errorf("%w: sceneCount must be at most %d", ErrInvalidInput, maxSceneCount)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled story"
	}

	sb := Storyboard{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Status:     StatusDraft,
		StoryText:  storyText,
		SceneCount: sceneCount,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, sb); err != nil {
		return Storyboard{}, err
	}
	return sb, nil
}

// Get returns one storyboard owned by the user.
func (s *Service) Get(ctx context.Context, userID, storyboardID string) (Storyboard, error) {
	if userID == "" || storyboardID == "" {
		return Storyboard{}, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID, storyboardID)
}

// List returns storyboards for a user, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Storyboard, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes a storyboard owned by the user.
func (s *Service) Delete(ctx context.Context, userID, storyboardID string) error {
	if userID == "" || storyboardID == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	return s.Repo.Delete(ctx, userID, storyboardID)
}
