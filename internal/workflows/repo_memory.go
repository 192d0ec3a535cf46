package workflows

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Workflow // id -> workflow
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Workflow)}
}

// Create stores a new workflow.
func (r *MemoryRepo) Create(ctx context.Context, wf Workflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[wf.ID] = wf
	return nil
}

// GetByID returns a workflow owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, workflowID string) (Workflow, error) {
	if err := ctx.Err(); err != nil {
		return Workflow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	wf, ok := r.data[workflowID]
	if !ok || wf.UserID != userID {
		return Workflow{}, ErrNotFound
	}
	return wf, nil
}

// GetByStoryboard returns the workflow attached to a storyboard.
func (r *MemoryRepo) GetByStoryboard(ctx context.Context, userID, storyboardID string) (Workflow, error) {
	if err := ctx.Err(); err != nil {
		return Workflow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, wf := range r.data {
		if wf.UserID == userID && wf.StoryboardID == storyboardID {
			return wf, nil
		}
	}
	return Workflow{}, ErrNotFound
}

// Update overwrites an existing workflow owned by the same user.
func (r *MemoryRepo) Update(ctx context.Context, wf Workflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[wf.ID]
	if !ok || existing.UserID != wf.UserID {
		return ErrNotFound
	}
	wf.UpdatedAt = time.Now().UTC()
	r.data[wf.ID] = wf
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
