package renderjobs

import "context"

// Repo defines persistence operations for video jobs.
type Repo interface {
	Create(ctx context.Context, job VideoJob) error
	GetByID(ctx context.Context, userID, jobID string) (VideoJob, error)
	// GetLatestByKind returns the newest job of one kind for a storyboard.
	GetLatestByKind(ctx context.Context, userID, storyboardID, kind string) (VideoJob, error)
	Update(ctx context.Context, job VideoJob) error
}
