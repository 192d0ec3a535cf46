package storyboards

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Storyboard // id -> storyboard
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Storyboard)}
}

// Create stores a new storyboard.
func (r *MemoryRepo) Create(ctx context.Context, sb Storyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[sb.ID] = sb
	return nil
}

// GetByID returns a storyboard owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, storyboardID string) (Storyboard, error) {
	if err := ctx.Err(); err != nil {
		return Storyboard{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sb, ok := r.data[storyboardID]
	if !ok || sb.UserID != userID {
		return Storyboard{}, ErrNotFound
	}
	return sb, nil
}

// ListByUser returns storyboards for a user, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Storyboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var out []Storyboard
	for _, sb := range r.data {
		if sb.UserID == userID {
			out = append(out, sb)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Storyboard{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Update overwrites an existing storyboard owned by the same user.
func (r *MemoryRepo) Update(ctx context.Context, sb Storyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[sb.ID]
	if !ok || existing.UserID != sb.UserID {
		return ErrNotFound
	}
	sb.UpdatedAt = time.Now().UTC()
	r.data[sb.ID] = sb
	return nil
}

// Delete removes a storyboard owned by the user.
func (r *MemoryRepo) Delete(ctx context.Context, userID, storyboardID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sb, ok := r.data[storyboardID]
	if !ok || sb.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, storyboardID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
