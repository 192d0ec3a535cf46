package renderjobs

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]VideoJob // id -> job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]VideoJob)}
}

// Create stores a new job.
func (r *MemoryRepo) Create(ctx context.Context, job VideoJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[job.ID] = job
	return nil
}

// GetByID returns a job owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, jobID string) (VideoJob, error) {
	if err := ctx.Err(); err != nil {
		return VideoJob{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.data[jobID]
	if !ok || job.UserID != userID {
		return VideoJob{}, ErrNotFound
	}
	return job, nil
}

// GetLatestByKind returns the newest job of one kind for a storyboard.
func (r *MemoryRepo) GetLatestByKind(ctx context.Context, userID, storyboardID, kind string) (VideoJob, error) {
	if err := ctx.Err(); err != nil {
		return VideoJob{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest VideoJob
	found := false
	for _, job := range r.data {
		if job.UserID != userID || job.StoryboardID != storyboardID || job.Kind != kind {
			continue
		}
		if !found || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
			found = true
		}
	}
	if !found {
		return VideoJob{}, ErrNotFound
	}
	return latest, nil
}

// Update overwrites an existing job owned by the same user.
func (r *MemoryRepo) Update(ctx context.Context, job VideoJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[job.ID]
	if !ok || existing.UserID != job.UserID {
		return ErrNotFound
	}
	job.UpdatedAt = time.Now().UTC()
	r.data[job.ID] = job
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
