package storyboards

import "context"

// Repo defines persistence operations for storyboards. All reads and writes
// are scoped by owning user.
type Repo interface {
	Create(ctx context.Context, sb Storyboard) error
	GetByID(ctx context.Context, userID, storyboardID string) (Storyboard, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Storyboard, error)
	Update(ctx context.Context, sb Storyboard) error
	Delete(ctx context.Context, userID, storyboardID string) error
}
