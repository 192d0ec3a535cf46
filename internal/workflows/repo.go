package workflows

import "context"

// Repo defines persistence operations for workflows. All reads and writes
// are scoped by owning user.
type Repo interface {
	Create(ctx context.Context, wf Workflow) error
	GetByID(ctx context.Context, userID, workflowID string) (Workflow, error)
	GetByStoryboard(ctx context.Context, userID, storyboardID string) (Workflow, error)
	Update(ctx context.Context, wf Workflow) error
}
